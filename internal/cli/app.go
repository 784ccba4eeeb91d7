package cli

import (
	ucli "github.com/urfave/cli/v2"
)

func NewApp(env *Env) *ucli.App {
	return &ucli.App{
		Name:  "cobit",
		Usage: "keep a local file in sync with a cobit snippet",
		Commands: []*ucli.Command{
			{
				Name:      "init",
				Usage:     "create a remote snippet and start a repo here",
				ArgsUsage: "[file]",
				Flags: []ucli.Flag{
					&ucli.StringFlag{
						Name:    "visibility",
						Aliases: []string{"v"},
						Usage:   "public or private; prompts when omitted",
					},
				},
				Action: func(c *ucli.Context) error {
					return env.Init(c.Context, c.Args().First(), c.String("visibility"))
				},
			},
			{
				Name:      "add",
				Usage:     "stage files for the next commit",
				ArgsUsage: "<files...> | .",
				Action: func(c *ucli.Context) error {
					return env.Add(c.Args().Slice())
				},
			},
			{
				Name:  "commit",
				Usage: "record the staged files",
				Flags: []ucli.Flag{
					&ucli.StringFlag{
						Name:     "message",
						Aliases:  []string{"m"},
						Usage:    "commit message",
						Required: true,
					},
				},
				Action: func(c *ucli.Context) error {
					return env.Commit(c.String("message"))
				},
			},
			{
				Name:  "status",
				Usage: "show repo id, staged files and commits",
				Action: func(c *ucli.Context) error {
					return env.Status()
				},
			},
			{
				Name:  "push",
				Usage: "upload the latest commit to the remote snippet",
				Action: func(c *ucli.Context) error {
					return env.Push(c.Context)
				},
			},
			{
				Name:      "clone",
				Usage:     "download a snippet into the current directory",
				ArgsUsage: "<id>",
				Action: func(c *ucli.Context) error {
					return env.Clone(c.Context, c.Args().First())
				},
			},
			{
				Name:  "login",
				Usage: "log in and save a token",
				Action: func(c *ucli.Context) error {
					return env.Login(c.Context)
				},
			},
			{
				Name:  "logout",
				Usage: "revoke and forget the saved token",
				Action: func(c *ucli.Context) error {
					return env.Logout(c.Context)
				},
			},
		},
	}
}

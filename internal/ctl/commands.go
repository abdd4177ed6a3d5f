package ctl

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/pms/internal/server/auth"
	"github.com/dmitrijs2005/pms/internal/server/models"
	"github.com/urfave/cli/v2"
)

var errNoSecret = errors.New("--secret (or JWT_SECRET) is required")

// passwordArg returns --password when set and prompts otherwise.
func (e *env) passwordArg(c *cli.Context) (string, error) {
	if pw := c.String("password"); pw != "" {
		return pw, nil
	}
	return newPassword(c.App.Writer, e.in)
}

func passwordFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "password",
		Usage: "password; prompted for when omitted",
	}
}

func hashPasswordCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "hash-password",
		Usage: "print a pbkdf2 hash suitable for users.password_hash",
		Flags: []cli.Flag{passwordFlag()},
		Action: func(c *cli.Context) error {
			pw, err := e.passwordArg(c)
			if err != nil {
				return err
			}
			if pw == "" {
				return errors.New("password must not be empty")
			}
			hash, err := e.hasher().Hash(pw)
			if err != nil {
				return err
			}
			e.printf("%s\n", hash)
			return nil
		},
	}
}

func setPasswordCmd(e *env) *cli.Command {
	var email string
	return &cli.Command{
		Name:  "set-password",
		Usage: "set the password of the user with the given email",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true, Destination: &email},
			passwordFlag(),
		},
		Action: func(c *cli.Context) error {
			pw, err := e.passwordArg(c)
			if err != nil {
				return err
			}
			svc, err := e.userService(c.Context)
			if err != nil {
				return err
			}
			u, err := svc.SetPasswordByEmail(c.Context, email, pw)
			if err != nil {
				return fmt.Errorf("set password for %s: %w", email, err)
			}
			e.printf("password updated for %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
}

func issueTokenCmd(e *env) *cli.Command {
	var (
		email string
		ttl   time.Duration
	)
	return &cli.Command{
		Name:  "issue-token",
		Usage: "mint an access token for an active user",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true, Destination: &email},
			&cli.DurationFlag{Name: "ttl", Usage: "token lifetime, default 168h", Destination: &ttl},
		},
		Action: func(c *cli.Context) error {
			if e.secret == "" {
				return errNoSecret
			}
			svc, err := e.userService(c.Context)
			if err != nil {
				return err
			}
			token, err := svc.IssueToken(c.Context, email, ttl)
			if err != nil {
				return fmt.Errorf("issue token for %s: %w", email, err)
			}
			e.printf("%s\n", token)
			return nil
		},
	}
}

func verifyTokenCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "verify-token",
		Usage:     "check a token signature and expiry and print its claims",
		ArgsUsage: "TOKEN",
		Action: func(c *cli.Context) error {
			if e.secret == "" {
				return errNoSecret
			}
			raw := auth.NormalizeToken(c.Args().First())
			if raw == "" {
				return errors.New("token argument is required")
			}
			codec, err := auth.NewTokenCodec([]byte(e.secret))
			if err != nil {
				return err
			}
			claims, err := codec.Verify(raw)
			if err != nil {
				return err
			}
			e.printf("sub\t%s\nemail\t%s\nname\t%s\n", claims.Subject, claims.Email, claims.Name)
			if claims.ExpiresAt != nil {
				e.printf("exp\t%s\n", claims.ExpiresAt.UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
}

func migrateCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply pending schema migrations",
		Action: func(c *cli.Context) error {
			if err := e.connect(c.Context); err != nil {
				return err
			}
			if err := e.rm.RunMigrations(c.Context, e.db); err != nil {
				return err
			}
			e.printf("migrations applied\n")
			return nil
		},
	}
}

func permissionsCmd(e *env) *cli.Command {
	var roleName string
	roleFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:        "role",
			Aliases:     []string{"r"},
			Usage:       "ADMIN, OWNER or MEMBER",
			Required:    true,
			Destination: &roleName,
		}
	}

	return &cli.Command{
		Name:  "permissions",
		Usage: "inspect and edit the permissions granted to a role",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "print the role's permissions, one per line",
				Flags: []cli.Flag{roleFlag()},
				Action: func(c *cli.Context) error {
					role, err := models.ParseRole(roleName)
					if err != nil {
						return err
					}
					a, err := e.authorizer(c.Context)
					if err != nil {
						return err
					}
					perms, err := a.PermissionsFor(c.Context, role)
					if err != nil {
						return err
					}
					for _, p := range perms {
						e.printf("%s\n", p)
					}
					return nil
				},
			},
			{
				Name:      "set",
				Usage:     "replace the role's permissions with the given list",
				ArgsUsage: "PERMISSION...",
				Flags:     []cli.Flag{roleFlag()},
				Action: func(c *cli.Context) error {
					role, err := models.ParseRole(roleName)
					if err != nil {
						return err
					}
					a, err := e.authorizer(c.Context)
					if err != nil {
						return err
					}
					stored, err := a.ReplacePermissions(c.Context, role, c.Args().Slice())
					if err != nil {
						return err
					}
					e.printf("%s: %s\n", role, strings.Join(stored, ", "))
					return nil
				},
			},
		},
	}
}

package main

import (
	"context"
	"time"

	"github.com/gyermekkert/admin/core"
	"github.com/gyermekkert/admin/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(name, uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	name = core.CleanString(name)
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.getUser(ctx, uname, email)
	if err != nil && err != user.ErrNotFound {
		return err
	}
	creating := err == user.ErrNotFound

	if name != "" {
		usr.Name = name
	}
	if uname != "" {
		usr.Username = uname
	}
	if email != "" {
		usr.Email = email
	}
	if isAdmin {
		usr.Roles = []string{user.RoleAdmin}
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	active := true
	usr.IsActive = &active
	usr.UpdatedAt = time.Now().UTC()

	if creating {
		usr.CreatedAt = usr.UpdatedAt
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}
	_, err = cli.usrRepo.UpdateUser(ctx, usr, usr.IsActive)
	return err
}

func (cli *commandLine) getUser(ctx context.Context, uname, email string) (user.User, error) {
	if uname != "" {
		usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname)
		if err == nil || err != user.ErrNotFound || email == "" {
			return usr, err
		}
	}
	return cli.usrRepo.GetUserByUsernameOrEmail(ctx, email)
}

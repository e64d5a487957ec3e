package cli

import (
	"context"
	"errors"
	"fmt"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errUsernameRequired = errors.New("username is required")

// Login prompts for a username (defaulting to the last one used) and a
// password. When the vault holds a password for the username the user may
// use it instead of typing one. After a successful login with a typed
// password the user is offered to save or update it in the vault.
//
// A rejected login is reported to the user and is not an error.
func (a *App) Login(ctx context.Context) error {
	last := a.auth.LastUsername(ctx)
	prompt := "Enter username"
	if last != "" {
		prompt = fmt.Sprintf("Enter username (empty for %s)", last)
	}
	username, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return err
	}
	if username == "" {
		username = last
	}
	if username == "" {
		return errUsernameRequired
	}

	password, fromVault, err := a.password(ctx, username)
	if err != nil {
		return err
	}
	defer wipe(password)

	res := a.auth.Login(ctx, username, string(password))
	if !res.Success {
		a.log.Warn(ctx, "login failed", "username", username, "reason", res.ErrorMessage)
		fmt.Fprintln(a.out, "Login failed:", res.ErrorMessage)
		if fromVault {
			fmt.Fprintf(a.out, "The saved password may be outdated, remove it with 'forget %s'\n", username)
		}
		return nil
	}

	a.setUser(username)
	if a.Mode() != ModeDisabled {
		a.setMode(ctx, ModeOnline)
	}
	fmt.Fprintln(a.out, "Logged in as", username)

	if !fromVault {
		return a.offerSave(ctx, username, password)
	}
	return nil
}

// password returns the password to log in with and whether it came from
// the vault.
func (a *App) password(ctx context.Context, username string) ([]byte, bool, error) {
	saved, err := a.vault.FindByUsername(ctx, username)
	if err != nil {
		a.log.Warn(ctx, "vault lookup failed", "username", username, "error", err)
	}
	if saved != nil {
		use, err := Confirm(a.reader, fmt.Sprintf("Use saved password for %s?", username), true, a.out)
		if err != nil {
			return nil, false, err
		}
		if use {
			return []byte(saved.Password), true, nil
		}
	}

	pw, err := getPassword(a.out)
	if err != nil {
		return nil, false, err
	}
	return pw, false, nil
}

func (a *App) offerSave(ctx context.Context, username string, password []byte) error {
	saved, err := a.vault.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if saved != nil && saved.Password == string(password) {
		return nil
	}

	prompt := "Save password to the local vault?"
	if saved != nil {
		prompt = fmt.Sprintf("Update saved password for %s?", username)
	}
	ok, err := Confirm(a.reader, prompt, false, a.out)
	if err != nil || !ok {
		return err
	}

	created, err := a.vault.SaveOrUpdate(ctx, username, string(password))
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintln(a.out, "Credentials saved")
	} else {
		fmt.Fprintln(a.out, "Saved password updated")
	}
	return nil
}

// Logout drops the session. Saved credentials stay in the vault.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.setUser("")
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Status prints the signed-in user, the connectivity mode and the household.
func (a *App) Status(ctx context.Context) error {
	user := a.user()
	if user == "" {
		user = "-"
	}
	mode := a.Mode()
	if mode == "" {
		mode = "unknown"
	}
	fmt.Fprintln(a.out, "User:", user)
	fmt.Fprintln(a.out, "Mode:", mode)

	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Session: none")
		return nil
	}
	fmt.Fprintln(a.out, "Session: active")

	household, err := a.auth.HouseholdID(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Household: unknown")
		return err
	}
	fmt.Fprintln(a.out, "Household:", household)
	return nil
}

func (a *App) getStatus() string {
	s := ""
	if u := a.user(); u != "" {
		s = u + " "
	}
	if m := a.Mode(); m != "" {
		s = s + string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root runs the interactive session until the user exits or input ends.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to forttask CLI (type 'help' for commands)")
	if a.config.OnlineCheckInterval <= 0 {
		a.setMode(ctx, ModeDisabled)
	}

	if !a.isLoggedIn() {
		if err := a.Login(ctx); err != nil {
			fmt.Fprintln(a.out, "Error:", err)
		}
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

package cli

import (
	"context"
	"fmt"
)

// Vault lists the usernames saved in the local vault. Passwords are never
// printed.
func (a *App) Vault(ctx context.Context) error {
	creds, err := a.vault.List(ctx)
	if err != nil {
		return err
	}
	if len(creds) == 0 {
		fmt.Fprintln(a.out, "The vault is empty")
		return nil
	}
	for _, c := range creds {
		fmt.Fprintf(a.out, "%d. %s\n", c.ID, c.Username)
	}
	return nil
}

func (a *App) Forget(ctx context.Context, username string) error {
	if err := a.vault.Forget(ctx, username); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed saved password for %s\n", username)
	return nil
}

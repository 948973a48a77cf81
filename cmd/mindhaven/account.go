package main

import (
	"context"
	"log"
	"time"

	"mindhaven/internal/client"
	"mindhaven/internal/storage"
)

func accountName(identity storage.Identity) string {
	if !identity.SignedIn() || identity.User == nil {
		return ""
	}
	if identity.User.Name != "" {
		return identity.User.Name
	}
	return identity.User.Email
}

// watchIdentity calls onChange after every identity change, including the
// sign-out any 401 response triggers.
func watchIdentity(ctx context.Context, identity *storage.IdentityStore, onChange func()) {
	events := identity.Subscribe(4)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				onChange()
			}
		}
	}()
}

// refreshIdentity re-reads the signed-in user from the server so renamed
// accounts show up after a restart. A sign-out during the request wins.
func refreshIdentity(ctx context.Context, api *client.Client, identity *storage.IdentityStore) {
	token := identity.Token()
	if token == "" {
		return
	}
	requestCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	user, err := api.Me(requestCtx)
	if err != nil {
		log.Printf("refresh identity: %v", err)
		return
	}
	if _, err := identity.RefreshUser(token, user); err != nil {
		log.Printf("refresh identity: %v", err)
	}
}

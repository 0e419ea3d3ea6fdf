package checkout

import "github.com/oakline/storefront/pkg/models"

// Actor is the checkout caller, resolved exactly once at the request
// boundary: either a registered user or a guest carrying a contact block.
// The zero value is a guest with no contact, which fails guest validation.
type Actor struct {
	user  *models.User
	guest *models.GuestCustomer
}

func RegisteredActor(user *models.User) Actor {
	return Actor{user: user}
}

func GuestActor(contact *models.GuestCustomer) Actor {
	return Actor{guest: contact}
}

func (a Actor) IsGuest() bool {
	return a.user == nil
}

// User returns the registered user, or nil for guests.
func (a Actor) User() *models.User {
	return a.user
}

// Guest returns the guest contact block, or nil for registered actors.
func (a Actor) Guest() *models.GuestCustomer {
	return a.guest
}

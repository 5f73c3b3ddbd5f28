// Package perm derives per-contract permissions. Nothing here is stored;
// permissions are recomputed from the session user and the contract's
// in-charge assignments every time they are needed.
package perm

import (
	"sitewatch/api/internal/contract"
	"sitewatch/api/internal/match"
)

type User struct {
	Name         string
	IsAdmin      bool
	IsSuperAdmin bool
}

type Permissions struct {
	CanView   bool `json:"canView"`
	CanUpdate bool `json:"canUpdate"`
	CanEdit   bool `json:"canEdit"`
	CanDelete bool `json:"canDelete"`
}

// Compute maps (user, assignments) to permissions. Admins get everything.
// Assigned personnel may view and post updates; only admins edit the base
// record or delete.
func Compute(user User, inCharge contract.InCharge) Permissions {
	if user.IsAdmin || user.IsSuperAdmin {
		return Permissions{CanView: true, CanUpdate: true, CanEdit: true, CanDelete: true}
	}
	assigned := InCharge(user, inCharge)
	return Permissions{CanView: assigned, CanUpdate: assigned}
}

// InCharge reports whether the user's display name matches any assignment
// field of the contract.
func InCharge(user User, inCharge contract.InCharge) bool {
	if user.IsAdmin || user.IsSuperAdmin {
		return true
	}
	if user.Name == "" {
		return false
	}
	for _, value := range inCharge.Values() {
		if match.NameMatches(user.Name, value) {
			return true
		}
	}
	return false
}

// Package models defines the domain models for PhobHub.
//
// Users keep a personal ledger of income and expense transactions, grouped
// under their own categories. Groups share a ledger of their own and evolve
// through two collaborative workflows:
//   - Invitation: a member invites a registered user, who accepts or rejects.
//   - Modification: a member proposes a change to the group's name,
//     description or target amount, and every other member must approve it.
//
// Relationships are expressed with ID strings rather than pointers.
package models

// Package seed loads development fixtures (users, categories, groups and
// ledger entries) into a store through the regular workflows, so seeded data
// obeys the same rules as data created over the API.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/phobhub/phobhub/internal/auth"
	"github.com/phobhub/phobhub/internal/groups"
	"github.com/phobhub/phobhub/internal/ledger"
	"github.com/phobhub/phobhub/internal/models"
)

// Fixture is the top-level layout of a seed file.
type Fixture struct {
	Users        []User        `yaml:"users"`
	Groups       []Group       `yaml:"groups"`
	Transactions []Transaction `yaml:"transactions"`
}

// User is an account plus the categories it owns.
type User struct {
	Email      string     `yaml:"email"`
	Name       string     `yaml:"name"`
	Password   string     `yaml:"password"`
	Categories []Category `yaml:"categories"`
}

type Category struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Color string `yaml:"color"`
}

// Group is created by Owner; every address in Members is invited by the
// owner and accepts.
type Group struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	TargetAmount string   `yaml:"target_amount"`
	Owner        string   `yaml:"owner"`
	Members      []string `yaml:"members"`
}

// Transaction is recorded by User. Group, when set, names a seeded group
// the entry belongs to.
type Transaction struct {
	User        string `yaml:"user"`
	Category    string `yaml:"category"`
	Amount      string `yaml:"amount"`
	Date        string `yaml:"date"`
	Description string `yaml:"description"`
	Group       string `yaml:"group"`
}

// LoadFile reads and parses a fixture file.
func LoadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML fixture. Unknown keys are rejected.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &f, nil
}

// Summary counts what Apply created.
type Summary struct {
	Users        int
	Categories   int
	Groups       int
	Members      int
	Transactions int
}

// Seeder applies fixtures through the workflows.
type Seeder struct {
	auth   *auth.PasswordAuthenticator
	groups *groups.Service
	ledger *ledger.Service
	logger *slog.Logger
}

func NewSeeder(authenticator *auth.PasswordAuthenticator, groupSvc *groups.Service, ledgerSvc *ledger.Service, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{auth: authenticator, groups: groupSvc, ledger: ledgerSvc, logger: logger}
}

// Apply creates everything in f. It stops at the first failure; what was
// created before that stays. Seeding an address that is already registered
// fails, so fixtures are meant for empty databases.
func (s *Seeder) Apply(ctx context.Context, f *Fixture) (*Summary, error) {
	var sum Summary
	users := make(map[string]*models.User)
	// categories is keyed by owner email, then category name.
	categories := make(map[string]map[string]string)
	groupIDs := make(map[string]string)

	for _, u := range f.Users {
		user, err := s.auth.Register(ctx, u.Email, u.Name, u.Password)
		if err != nil {
			return &sum, fmt.Errorf("user %s: %w", u.Email, err)
		}
		users[user.Email] = user
		categories[user.Email] = make(map[string]string)
		sum.Users++

		for _, c := range u.Categories {
			cat, err := s.ledger.CreateCategory(ctx, user.ID, c.Name, models.TransactionType(c.Type), c.Color)
			if err != nil {
				return &sum, fmt.Errorf("category %s of %s: %w", c.Name, u.Email, err)
			}
			categories[user.Email][cat.Name] = cat.ID
			sum.Categories++
		}
		s.logger.DebugContext(ctx, "seeded user", "email", user.Email, "categories", len(u.Categories))
	}

	lookup := func(email string) (*models.User, error) {
		u, ok := users[auth.NormalizeEmail(email)]
		if !ok {
			return nil, fmt.Errorf("unknown user %q", email)
		}
		return u, nil
	}

	for _, g := range f.Groups {
		owner, err := lookup(g.Owner)
		if err != nil {
			return &sum, fmt.Errorf("group %s: %w", g.Name, err)
		}

		in := groups.NewGroup{Name: g.Name, Description: g.Description}
		if g.TargetAmount != "" {
			amount, err := decimal.NewFromString(g.TargetAmount)
			if err != nil {
				return &sum, fmt.Errorf("group %s: invalid target amount: %w", g.Name, err)
			}
			in.TargetAmount = decimal.NewNullDecimal(amount)
		}

		group, err := s.groups.CreateGroup(ctx, owner.ID, in)
		if err != nil {
			return &sum, fmt.Errorf("group %s: %w", g.Name, err)
		}
		groupIDs[g.Name] = group.ID
		sum.Groups++

		for _, email := range g.Members {
			member, err := lookup(email)
			if err != nil {
				return &sum, fmt.Errorf("group %s: %w", g.Name, err)
			}
			inv, err := s.groups.Invite(ctx, group.ID, owner.ID, member.Email)
			if err != nil {
				return &sum, fmt.Errorf("invite %s to %s: %w", member.Email, g.Name, err)
			}
			if _, err := s.groups.RespondToInvitation(ctx, inv.ID, member.ID, true); err != nil {
				return &sum, fmt.Errorf("accept %s into %s: %w", member.Email, g.Name, err)
			}
			sum.Members++
		}
		s.logger.DebugContext(ctx, "seeded group", "name", g.Name, "members", len(g.Members)+1)
	}

	for i, t := range f.Transactions {
		user, err := lookup(t.User)
		if err != nil {
			return &sum, fmt.Errorf("transaction %d: %w", i, err)
		}
		categoryID, ok := categories[user.Email][t.Category]
		if !ok {
			return &sum, fmt.Errorf("transaction %d: %s has no category %q", i, user.Email, t.Category)
		}
		amount, err := decimal.NewFromString(t.Amount)
		if err != nil {
			return &sum, fmt.Errorf("transaction %d: invalid amount: %w", i, err)
		}
		date, err := time.Parse(models.DateLayout, t.Date)
		if err != nil {
			return &sum, fmt.Errorf("transaction %d: invalid date: %w", i, err)
		}

		in := ledger.TransactionInput{
			CategoryID:  categoryID,
			Amount:      amount,
			Date:        date,
			Description: t.Description,
		}
		if t.Group != "" {
			groupID, ok := groupIDs[t.Group]
			if !ok {
				return &sum, fmt.Errorf("transaction %d: unknown group %q", i, t.Group)
			}
			in.OwnerType = models.OwnerGroup
			in.OwnerID = groupID
		}

		if _, err := s.ledger.Create(ctx, user.ID, in); err != nil {
			return &sum, fmt.Errorf("transaction %d: %w", i, err)
		}
		sum.Transactions++
	}

	return &sum, nil
}

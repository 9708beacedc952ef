package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/wasteer/wasteer/internal/config"
	"github.com/wasteer/wasteer/internal/identity"
	"github.com/wasteer/wasteer/internal/waste"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo permissions, roles, teams, users and waste entries",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

type seedPermission struct {
	code string
	name string
}

var seedPermissions = []seedPermission{
	{"manage_wasteentry", "Can manage waste entries (create, read, update, delete)"},
	{"add_wasteentry", "Can add waste entry"},
	{"edit_wasteentry", "Can edit waste entry"},
	{"delete_wasteentry", "Can delete waste entry"},
	{"view_wasteentry", "Can view waste entry"},
	{"view_analytics", "Can view analytics"},
	{"manage_user", "Can manage users (create, read, update, delete)"},
	{"view_users", "Can view users"},
	{"add_user", "Can add users"},
	{"edit_user", "Can edit users"},
	{"delete_user", "Can delete users"},
	{"manage_team", "Can manage teams (create, read, update, delete)"},
	{"view_teams", "Can view teams"},
	{"add_team", "Can add teams"},
	{"edit_team", "Can edit teams"},
	{"delete_team", "Can delete teams"},
	{"view_team_members", "Can view team members"},
	{"manage_role", "Can manage roles (create, read, update, delete)"},
	{"view_roles", "Can view roles"},
	{"add_role", "Can add roles"},
	{"edit_role", "Can edit roles"},
	{"delete_role", "Can delete roles"},
	{"view_permissions", "Can view permissions"},
	{"assign_permissions", "Can assign permissions to roles"},
}

var managerPermissionCodes = []string{
	"manage_wasteentry",
	"view_analytics",
	"view_teams",
	"view_team_members",
	"view_users",
}

var employeePermissionCodes = []string{
	"add_wasteentry",
	"view_wasteentry",
}

type seedTeam struct {
	name        string
	description string
}

var seedTeams = []seedTeam{
	{"Engineering", "Engineering team responsible for product development"},
	{"Marketing", "Marketing team responsible for product promotion"},
	{"Operations", "Operations team responsible for day-to-day operations"},
}

type seedUser struct {
	username    string
	password    string
	role        string
	team        string
	isSuperuser bool
}

var seedUsers = []seedUser{
	{"admin", "adminpassword", "Admin", "", true},
	{"eng_manager", "managerpassword", "Manager", "Engineering", false},
	{"mkt_manager", "managerpassword", "Manager", "Marketing", false},
	{"ops_manager", "managerpassword", "Manager", "Operations", false},
	{"eng_employee1", "employeepassword", "Employee", "Engineering", false},
	{"eng_employee2", "employeepassword", "Employee", "Engineering", false},
	{"mkt_employee", "employeepassword", "Employee", "Marketing", false},
	{"ops_employee", "employeepassword", "Employee", "Operations", false},
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := identity.NewStore(pool)
	entryStore := waste.NewStore(pool)

	// Check if seed has already run.
	if _, err := store.GetRoleByName(ctx, "Admin"); err == nil {
		slog.Info("seed data already exists, skipping seed")
		return nil
	}

	permIDs := make(map[string]int64, len(seedPermissions))
	for _, sp := range seedPermissions {
		p, err := store.EnsurePermission(ctx, sp.code, sp.name)
		if err != nil {
			return fmt.Errorf("creating permission %q: %w", sp.code, err)
		}
		permIDs[sp.code] = p.ID
	}
	slog.Info("created permissions", "count", len(seedPermissions))

	allIDs := make([]int64, 0, len(seedPermissions))
	for _, sp := range seedPermissions {
		allIDs = append(allIDs, permIDs[sp.code])
	}

	roleIDs := make(map[string]int64, 3)
	for _, r := range []struct {
		name  string
		codes []string
		ids   []int64
	}{
		{name: "Admin", ids: allIDs},
		{name: "Manager", codes: managerPermissionCodes},
		{name: "Employee", codes: employeePermissionCodes},
	} {
		ids := r.ids
		for _, code := range r.codes {
			ids = append(ids, permIDs[code])
		}
		role, err := store.CreateRole(ctx, r.name, ids)
		if err != nil {
			return fmt.Errorf("creating role %q: %w", r.name, err)
		}
		roleIDs[r.name] = role.ID
		slog.Info("created role", "name", role.Name, "permissions", len(ids))
	}

	teamIDs := make(map[string]int64, len(seedTeams))
	for _, st := range seedTeams {
		team, err := store.CreateTeam(ctx, st.name, st.description)
		if err != nil {
			return fmt.Errorf("creating team %q: %w", st.name, err)
		}
		teamIDs[st.name] = team.ID
		slog.Info("created team", "name", team.Name, "id", team.ID)
	}

	users := make([]*identity.User, 0, len(seedUsers))
	for _, su := range seedUsers {
		input := identity.CreateUserInput{
			Username:    su.username,
			Email:       su.username + "@wasteer.com",
			Password:    su.password,
			RoleID:      roleIDs[su.role],
			IsSuperuser: su.isSuperuser,
		}
		if su.team != "" {
			id := teamIDs[su.team]
			input.TeamID = &id
		}
		u, err := store.CreateUser(ctx, input)
		if err != nil {
			return fmt.Errorf("creating user %q: %w", su.username, err)
		}
		users = append(users, u)
	}
	slog.Info("created users", "count", len(users))

	// Waste entries for the past 30 days: each team member records one to
	// three entries per day.
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	created := 0
	for i := 0; i < 30; i++ {
		day := time.Now().UTC().AddDate(0, 0, -i)
		for _, u := range users {
			if u.TeamID == nil {
				continue
			}
			for n := rng.Intn(3) + 1; n > 0; n-- {
				wt := waste.AllTypes[rng.Intn(len(waste.AllTypes))]
				weight := float64(rng.Intn(991)+10) / 100 // 0.10 to 10.00 kg
				desc := fmt.Sprintf("Sample %s waste entry", wt)
				_, err := entryStore.Create(ctx, &waste.Entry{
					WasteType:   wt,
					Weight:      weight,
					Description: &desc,
					Timestamp:   day,
					UserID:      u.ID,
					TeamID:      *u.TeamID,
				})
				if err != nil {
					return fmt.Errorf("creating waste entry: %w", err)
				}
				created++
			}
		}
	}
	slog.Info("created waste entries", "count", created)

	slog.Info("database seeding completed")
	return nil
}

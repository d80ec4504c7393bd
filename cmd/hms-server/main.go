package main

import (
	"context"
	crypto_rand "crypto/rand"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hospital/hms/internal/config"
	"github.com/hospital/hms/internal/domain/account"
	"github.com/hospital/hms/internal/domain/admission"
	"github.com/hospital/hms/internal/domain/billing"
	"github.com/hospital/hms/internal/domain/clinical"
	"github.com/hospital/hms/internal/domain/facility"
	"github.com/hospital/hms/internal/domain/identity"
	"github.com/hospital/hms/internal/domain/medication"
	"github.com/hospital/hms/internal/domain/scheduling"
	"github.com/hospital/hms/internal/platform/auth"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/internal/platform/jobs"
	"github.com/hospital/hms/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hms-server",
		Short: "Hospital management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(slotsCmd())
	rootCmd.AddCommand(adminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg != nil && cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// connect loads and validates the config and opens the pool.
func connect(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

// migrationFS prefers an on-disk directory when one is configured.
func migrationFS(dir string) fs.FS {
	if dir != "" {
		return os.DirFS(dir)
	}
	return migrations.FS
}

// resolveSigningKey decodes AUTH_SIGNING_KEY, or generates a random key when
// it is unset. The second return value is true for a generated key.
func resolveSigningKey(envValue string) ([]byte, bool, error) {
	if envValue != "" {
		decoded, err := hex.DecodeString(envValue)
		if err != nil {
			return nil, false, fmt.Errorf("invalid AUTH_SIGNING_KEY hex value: %w", err)
		}
		return decoded, false, nil
	}
	key := make([]byte, 32)
	if _, err := crypto_rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("generate signing key: %w", err)
	}
	return key, true, nil
}

// services holds every domain service, wired to one pool.
type services struct {
	tx         *db.PoolTransactor
	facility   *facility.Service
	account    *account.Service
	identity   *identity.Service
	scheduling *scheduling.Service
	medication *medication.Service
	clinical   *clinical.Service
	billing    *billing.Service
	admission  *admission.Service
}

func newServices(pool *pgxpool.Pool, cfg *config.Config, issuer *auth.TokenIssuer, logger zerolog.Logger) *services {
	tx := db.NewTransactor(pool)

	facilitySvc := facility.NewService(
		facility.NewDepartmentRepoPG(pool),
		facility.NewWardRepoPG(pool),
		facility.NewCountryRepoPG(pool),
		facility.NewBloodGroupRepoPG(pool),
	)
	accountSvc := account.NewService(account.NewLoginRepoPG(pool), issuer)
	identitySvc := identity.NewService(
		identity.NewPatientRepoPG(pool),
		identity.NewStaffRepoPG(pool),
		facilitySvc,
		accountSvc,
		tx,
	)
	schedulingSvc := scheduling.NewService(
		scheduling.NewTimingRepoPG(pool),
		scheduling.NewSlotRepoPG(pool),
		scheduling.NewAppointmentRepoPG(pool),
		tx,
	)
	medicationSvc := medication.NewService(
		medication.NewMedicineRepoPG(pool),
		medication.NewPrescriptionRepoPG(pool),
		schedulingSvc,
		tx,
	)
	clinicalSvc := clinical.NewService(clinical.NewMedicalRecordRepoPG(pool))
	billingSvc := billing.NewService(
		billing.NewFeeRepoPG(pool),
		schedulingSvc,
		medicationSvc,
		clinicalSvc,
		tx,
		cfg.HospitalName,
		logger.With().Str("component", "billing").Logger(),
	)
	admissionSvc := admission.NewService(admission.NewAdmissionRepoPG(pool), medicationSvc, billingSvc, tx)

	return &services{
		tx:         tx,
		facility:   facilitySvc,
		account:    accountSvc,
		identity:   identitySvc,
		scheduling: schedulingSvc,
		medication: medicationSvc,
		clinical:   clinicalSvc,
		billing:    billingSvc,
		admission:  admissionSvc,
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, migrationFS(cfg.MigrationsDir)).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrationFS(cfg.MigrationsDir)).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status, appliedAt := "pending", ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func slotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Appointment slot maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "release-expired",
		Short: "Free slots held by appointments dated before today",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := newLogger(cfg)
			svc := newServices(pool, cfg, auth.NewTokenIssuer(auth.JWTConfig{}), logger)
			n, err := jobs.NewScheduler(svc.scheduling, logger).ReleaseSlots(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Released %d slot(s).\n", n)
			return nil
		},
	})
	return cmd
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative tasks",
	}

	bootstrap := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the first admin staff member and login",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password are required")
			}

			ctx := context.Background()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := newServices(pool, cfg, auth.NewTokenIssuer(auth.JWTConfig{}), newLogger(cfg))
			staff, err := bootstrapAdmin(ctx, svc, name, username, password)
			if err != nil {
				return err
			}
			fmt.Printf("Created admin %q (staff %s).\n", username, staff.ID)
			return nil
		},
	}
	bootstrap.Flags().String("name", "Administrator", "Staff name")
	bootstrap.Flags().String("username", "", "Login username")
	bootstrap.Flags().String("password", "", "Login password")
	cmd.AddCommand(bootstrap)
	return cmd
}

func bootstrapAdmin(ctx context.Context, svc *services, name, username, password string) (*identity.Staff, error) {
	roles, err := svc.identity.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	var roleFound bool
	staff := &identity.Staff{Name: name}
	for _, r := range roles {
		if strings.EqualFold(r.Name, auth.RoleAdmin) {
			staff.RoleID, roleFound = r.ID, true
		}
	}
	if !roleFound {
		return nil, fmt.Errorf("admin role missing; run migrate up first")
	}
	err = svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.identity.CreateStaff(ctx, staff); err != nil {
			return err
		}
		_, err := svc.account.CreateStaffLogin(ctx, account.NewStaffLogin{Username: username, Password: password, StaffID: staff.ID})
		return err
	})
	if err != nil {
		return nil, err
	}
	return staff, nil
}

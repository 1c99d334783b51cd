package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/noah-isme/lakeview-records-api/internal/repository"
	"github.com/noah-isme/lakeview-records-api/internal/service"
	"github.com/noah-isme/lakeview-records-api/pkg/config"
	"github.com/noah-isme/lakeview-records-api/pkg/database"
	"github.com/noah-isme/lakeview-records-api/pkg/logger"
)

const usage = `usage: academic-cli <command> [flags]

commands:
  advance         move every student into a target session
  create-session  create a new academic session
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	sessionRepo := repository.NewSessionRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	levelRepo := repository.NewLevelRepository(db)

	ctx := context.Background()

	switch os.Args[1] {
	case "advance":
		fs := flag.NewFlagSet("advance", flag.ExitOnError)
		sessionName := fs.String("session", "", "target session name, e.g. 2025/2026")
		sessionID := fs.String("session-id", "", "target session id")
		dryRun := fs.Bool("dry-run", false, "report transitions without persisting")
		fs.Parse(os.Args[2:]) //nolint:errcheck

		svc := service.NewAdvancementService(studentRepo, levelRepo, sessionRepo, nil, nil, logr)
		report, err := svc.AdvanceAll(ctx, service.AdvanceRequest{
			SessionID:   *sessionID,
			SessionName: *sessionName,
			DryRun:      *dryRun,
		})
		if err != nil {
			log.Fatalf("advancement failed: %v", err)
		}
		mode := "applied"
		if report.DryRun {
			mode = "dry-run"
		}
		fmt.Printf("%s: %d students into %s (semester %d, level %d, terminal %d, failed %d)\n",
			mode, report.TotalStudents, report.TargetSessionName,
			report.SemesterAdvanced, report.LevelAdvanced, report.Terminal, report.Failed)
		for _, tr := range report.Transitions {
			if tr.Error != "" {
				fmt.Printf("  %s (%s): %s\n", tr.StudentID, tr.FullName, tr.Error)
			}
		}
		if report.Failed > 0 {
			os.Exit(1)
		}

	case "create-session":
		fs := flag.NewFlagSet("create-session", flag.ExitOnError)
		name := fs.String("name", "", "session name, e.g. 2025/2026")
		activate := fs.Bool("activate", false, "activate the session after creating it")
		fs.Parse(os.Args[2:]) //nolint:errcheck

		svc := service.NewSessionService(sessionRepo, nil, nil, logr)
		session, err := svc.Create(ctx, service.CreateSessionRequest{Name: *name, Activate: *activate})
		if err != nil {
			log.Fatalf("create session failed: %v", err)
		}
		fmt.Printf("created session %s (%s), active=%t\n", session.Name, session.ID, session.IsActive)

	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

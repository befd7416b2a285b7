package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"

	"bigtwo/internal/app"
	"bigtwo/internal/bot"
	"bigtwo/internal/cache"
	"bigtwo/internal/config"
	"bigtwo/internal/domain"
	"bigtwo/internal/logging"
)

// Demo driver: runs a bot-vs-bot local session to completion and prints
// the score ledger. Seat difficulties come from BOT_SEATS, e.g.
// "hard,easy,easy,hard".
func main() {
	godotenv.Load()

	cfg := config.Load()
	logger := slog.New(logging.NewHandler(os.Stderr, logLevel()))
	slog.SetDefault(logger)

	brains, names, err := seatBrains()
	if err != nil {
		logger.Error("invalid bot lineup", "error", err)
		os.Exit(1)
	}

	engine := app.NewEngine(cfg, brains, nil, logger)
	defer engine.Close()

	// An interrupted session resumes its score totals on the next run.
	if dir, err := os.UserCacheDir(); err == nil {
		history, err := cache.NewScoreHistory(filepath.Join(dir, "bigtwo"))
		if err != nil {
			logger.Warn("score cache unavailable", "error", err)
		} else {
			engine.UseScoreHistory(history, "local-session")
		}
	}

	events := engine.Observe()
	engine.Start()

	pterm.DefaultSection.Println("Big Two bot session")

	for ev := range events {
		switch ev.Kind {
		case app.EventHandDealt:
			p := ev.Payload.(app.HandDealtPayload)
			pterm.Info.Printfln("match %d dealt, %s opens", p.MatchNumber, names[p.FirstTurn])
		case app.EventLastCardAlert:
			p := ev.Payload.(app.LastCardAlertPayload)
			pterm.Warning.Printfln("%s is down to one card", names[p.Seat])
		case app.EventMatchEnded:
			p := ev.Payload.(app.MatchEndedPayload)
			pterm.Success.Printfln("match %d won by %s", p.Entry.MatchNumber, names[p.Winner])
			printLedgerEntry(names, p.Entry)
		case app.EventSessionEnded:
			p := ev.Payload.(app.SessionEndedPayload)
			printFinalTable(names, p)
			return
		}
	}
}

func logLevel() slog.Level {
	if os.Getenv("DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func seatBrains() ([domain.Seats]bot.Brain, [domain.Seats]string, error) {
	var brains [domain.Seats]bot.Brain
	var names [domain.Seats]string

	lineup := [domain.Seats]bot.Difficulty{
		bot.DifficultyHard, bot.DifficultyEasy, bot.DifficultyEasy, bot.DifficultyHard,
	}
	if env := os.Getenv("BOT_SEATS"); env != "" {
		parsed, err := parseLineup(env)
		if err != nil {
			return brains, names, err
		}
		lineup = parsed
	}

	for seat, difficulty := range lineup {
		brain, err := bot.NewBrain(difficulty)
		if err != nil {
			return brains, names, err
		}
		brains[seat] = brain
		names[seat] = fmt.Sprintf("%s bot %d", difficulty, seat)
	}
	return brains, names, nil
}

func parseLineup(env string) ([domain.Seats]bot.Difficulty, error) {
	var lineup [domain.Seats]bot.Difficulty
	parts := strings.Split(env, ",")
	if len(parts) != domain.Seats {
		return lineup, fmt.Errorf("BOT_SEATS needs %d entries, got %d", domain.Seats, len(parts))
	}
	for i, p := range parts {
		lineup[i] = bot.Difficulty(strings.TrimSpace(p))
	}
	return lineup, nil
}

func printLedgerEntry(names [domain.Seats]string, entry domain.LedgerEntry) {
	rows := pterm.TableData{{"seat", "penalty", "total"}}
	for seat := 0; seat < domain.Seats; seat++ {
		rows = append(rows, []string{
			names[seat],
			strconv.Itoa(entry.Deltas[seat]),
			strconv.Itoa(entry.Totals[seat]),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func printFinalTable(names [domain.Seats]string, p app.SessionEndedPayload) {
	pterm.DefaultSection.Println("Session over")
	rows := pterm.TableData{{"seat", "final score"}}
	for seat := 0; seat < domain.Seats; seat++ {
		label := names[seat]
		if seat == p.Winner {
			label = pterm.LightGreen(label + " (winner)")
		}
		rows = append(rows, []string{label, strconv.Itoa(p.Totals[seat])})
	}
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

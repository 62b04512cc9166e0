// The codewords-local binary runs a single-terminal game against an
// in-memory store, mostly useful for trying out the rules engine.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/namsral/flag"
	"github.com/rs/zerolog"

	"github.com/bcspragu/Codewords/client"
	cwio "github.com/bcspragu/Codewords/io"
	"github.com/bcspragu/Codewords/memstore"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var spymaster = flag.Bool("spymaster", true, "Show unrevealed card types")

	flag.Parse()

	ctx := context.Background()
	store := memstore.New()

	printer := &cwio.Printer{Out: os.Stdout, Spymaster: *spymaster}

	sess, err := client.New(client.Config{
		Store:     store,
		Watcher:   store,
		SessionID: "user_local",
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create session")
	}
	defer sess.Close()

	g, err := sess.CreateGame(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create game")
	}
	fmt.Printf("Game %s\n", g.ID)
	printer.PrintGame(g)

	fmt.Println("Commands: reveal <n>, clue <word> <count>, end, shuffle, reset, board, quit")
	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !sc.Scan() {
			break
		}

		if err := handle(ctx, sess, printer, sc.Text()); err != nil {
			if err == errQuit {
				return
			}
			fmt.Printf("error: %v\n", err)
		}
	}
	if err := sc.Err(); err != nil {
		logger.Fatal().Err(err).Msg("scanner error")
	}
}

var errQuit = fmt.Errorf("quit")

func handle(ctx context.Context, sess *client.Session, printer *cwio.Printer, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "reveal":
		if len(fields) != 2 {
			return fmt.Errorf("usage: reveal <n>")
		}
		idx, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("malformed card index %q", fields[1])
		}
		if err := sess.Reveal(ctx, idx); err != nil {
			return err
		}
	case "clue":
		clue, err := cwio.ParseClue(strings.Join(fields[1:], " "), sess.Game().CurrentTeam)
		if err != nil {
			return err
		}
		if err := sess.GiveClue(ctx, clue.Word, clue.Number); err != nil {
			return err
		}
	case "end":
		if err := sess.EndTurn(ctx); err != nil {
			return err
		}
	case "shuffle":
		if err := sess.Shuffle(ctx); err != nil {
			return err
		}
	case "reset":
		if err := sess.Reset(ctx); err != nil {
			return err
		}
	case "board":
		// Just reprint below.
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}

	printer.PrintGame(sess.Game())
	return nil
}

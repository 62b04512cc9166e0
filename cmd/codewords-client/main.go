// The codewords-client binary plays a shared game from the terminal, talking
// to a codewords-server instance.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/namsral/flag"
	"github.com/rs/zerolog"

	codewords "github.com/bcspragu/Codewords"
	"github.com/bcspragu/Codewords/client"
	cwio "github.com/bcspragu/Codewords/io"
	"github.com/bcspragu/Codewords/joinlink"
	"github.com/bcspragu/Codewords/session"
	"github.com/bcspragu/Codewords/webstore"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		serverScheme = flag.String("server_scheme", "http", "The scheme of the server to connect to to play the game.")
		serverAddr   = flag.String("server_addr", "localhost:8080", "The address of the server to connect to to play the game.")
		gameToJoin   = flag.String("join", "", "A join link or game code, will create a game if blank")
		spymaster    = flag.Bool("spymaster", false, "Try to claim the spymaster seat")
	)

	flag.Parse()

	sessionPath, err := session.DefaultPath()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to find session path")
	}
	sessionID, err := session.Load(sessionPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load session ID")
	}

	store, err := webstore.New(*serverScheme, *serverAddr)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create store")
	}

	ctx := context.Background()
	printer := &cwio.Printer{Out: os.Stdout}

	sess, err := client.New(client.Config{
		Store:      store,
		Watcher:    store,
		SessionID:  sessionID,
		GraceDelay: 3 * time.Second,
		OnChange: func(g *codewords.Game) {
			printer.PrintGame(g)
		},
		OnDemoted: func(spymasterID string) {
			fmt.Println("The spymaster seat was claimed by another player, you're a regular player now.")
			printer.Spymaster = false
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create session")
	}
	defer sess.Close()

	var g *codewords.Game
	if *gameToJoin == "" {
		if g, err = sess.CreateGame(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to create game")
		}
		fmt.Printf("Created game %s, share this code to invite players\n", g.ID)
	} else {
		id, ok := joinlink.Parse(*gameToJoin)
		if !ok {
			logger.Fatal().Str("join", *gameToJoin).Msg("not a valid join link or game code")
		}
		if g, err = sess.Join(ctx, id); err != nil {
			logger.Fatal().Err(err).Msg("failed to join game")
		}
		fmt.Printf("Joined game %s\n", g.ID)
	}

	if *spymaster {
		ok, err := sess.ClaimSpymaster(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to claim spymaster seat")
		}
		if ok {
			fmt.Println("You're the spymaster.")
			printer.Spymaster = true
		} else {
			fmt.Println("The spymaster seat is already taken, joining as a regular player.")
		}
	}

	printer.PrintGame(sess.Game())

	fmt.Println("Commands: reveal <n>, clue <word> <count>, end, shuffle, reset, claim, board, quit")
	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !sc.Scan() {
			break
		}

		if quit := handle(ctx, sess, printer, sc.Text()); quit {
			return
		}
	}
	if err := sc.Err(); err != nil {
		logger.Fatal().Err(err).Msg("scanner error")
	}
}

func handle(ctx context.Context, sess *client.Session, printer *cwio.Printer, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	var err error
	switch fields[0] {
	case "reveal":
		if len(fields) != 2 {
			err = fmt.Errorf("usage: reveal <n>")
			break
		}
		var idx int
		if idx, err = strconv.Atoi(fields[1]); err != nil {
			err = fmt.Errorf("malformed card index %q", fields[1])
			break
		}
		err = sess.Reveal(ctx, idx)
	case "clue":
		var clue *codewords.Clue
		if clue, err = cwio.ParseClue(strings.Join(fields[1:], " "), sess.Game().CurrentTeam); err != nil {
			break
		}
		err = sess.GiveClue(ctx, clue.Word, clue.Number)
	case "end":
		err = sess.EndTurn(ctx)
	case "shuffle":
		err = sess.Shuffle(ctx)
	case "reset":
		err = sess.Reset(ctx)
	case "claim":
		var ok bool
		if ok, err = sess.ClaimSpymaster(ctx); err == nil {
			if ok {
				fmt.Println("You're the spymaster.")
				printer.Spymaster = true
			} else {
				fmt.Println("The spymaster seat is already taken.")
			}
		}
	case "board":
		printer.PrintGame(sess.Game())
	case "quit", "exit":
		return true
	default:
		err = fmt.Errorf("unknown command %q", fields[0])
	}

	if err != nil {
		fmt.Printf("error: %v\n", err)
	}
	return false
}

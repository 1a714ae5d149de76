package cmd

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"warlockarena/engine"
	"warlockarena/game"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Play a scripted game locally and print its log",
	Long: `Runs a whole game without a network: every player is driven by a
simple planner (heal the weakest ally, otherwise attack the monster;
warlocks sometimes strike a teammate). Useful to eyeball balance changes
to the ability catalog.`,
	RunE: runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.Int("players", 4, "number of players")
	f.Int("rounds", 50, "stop after this many rounds")
	f.Int64("seed", 0, "random seed, 0 for time based")
	f.String("catalog", "", "ability catalog YAML, empty for the built-in one")
	f.Bool("private", false, "also print private entries")
	rootCmd.AddCommand(simulateCmd)
}

var (
	simRaces   = []game.Race{game.RaceHuman, game.RaceDwarf, game.RaceElf, game.RaceOrc, game.RaceSatyr, game.RaceSkeleton}
	simClasses = []game.Class{game.ClassWarrior, game.ClassPyromancer, game.ClassWizard, game.ClassAssassin, game.ClassPriest, game.ClassAlchemist}
)

func runSimulate(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	players, _ := f.GetInt("players")
	rounds, _ := f.GetInt("rounds")
	seed, _ := f.GetInt64("seed")
	catalogPath, _ := f.GetString("catalog")
	private, _ := f.GetBool("private")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	catalog, err := loadCatalog(catalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	out := cmd.OutOrStdout()
	winner, err := simulate(cmd.Context(), catalog, players, rounds, rand.New(rand.NewSource(seed)), out, private)
	if err != nil {
		return err
	}
	if winner == game.WinNone {
		fmt.Fprintf(out, "no winner after %d rounds (seed %d)\n", rounds, seed)
		return nil
	}
	fmt.Fprintf(out, "winner: %s (seed %d)\n", winner, seed)
	return nil
}

// simulate 跑完一整局，返回胜方
func simulate(ctx context.Context, catalog *game.Catalog, players, rounds int, rng *rand.Rand, out io.Writer, private bool) (game.WinCondition, error) {
	g := game.NewGame("simulation")
	m := engine.NewManager(g, catalog, engine.WithRand(rng), engine.WithLogger(zap.NewNop().Sugar()))
	for i := 0; i < players; i++ {
		id := game.PlayerID(fmt.Sprintf("p%d", i+1))
		race, class := simRaces[i%len(simRaces)], simClasses[(i*5+1)%len(simClasses)]
		p := game.NewPlayer(id, fmt.Sprintf("%s-%s-%d", race, class, i+1), race, class)
		if err := m.Enroll(p); err != nil {
			return game.WinNone, err
		}
	}
	entries, err := m.Start()
	if err != nil {
		return game.WinNone, err
	}
	printEntries(out, entries, private)

	for r := 0; r < rounds; r++ {
		for _, p := range g.AlivePlayers() {
			abilityID, target := planAction(g, catalog, p, rng)
			if err := g.Submit(p.ID, abilityID, target, false); err != nil {
				return game.WinNone, err
			}
			if racial, ok := catalog.RacialFor(p.Race); ok && rng.Intn(3) == 0 {
				_ = g.Submit(p.ID, racial.ID, racialTarget(racial, g, p), true)
			}
		}
		outcome, err := m.Round(ctx)
		if err != nil {
			return game.WinNone, err
		}
		printEntries(out, outcome.Entries, private)
		if outcome.GameOver {
			return outcome.Winner, nil
		}
	}
	return game.WinNone, nil
}

// planAction 治疗血量低于一半的队友，否则攻击；术士有一半概率偷袭好人
func planAction(g *game.Game, catalog *game.Catalog, p *game.Player, rng *rand.Rand) (string, string) {
	var weakest *game.Player
	var victims []*game.Player
	for _, o := range g.AlivePlayers() {
		if weakest == nil || o.HP*weakest.MaxHP < weakest.HP*o.MaxHP {
			weakest = o
		}
		if !o.IsWarlock && o.ID != p.ID {
			victims = append(victims, o)
		}
	}
	var usable []*game.Ability
	for _, id := range p.Abilities {
		if p.Cooldowns[id] > 0 {
			continue
		}
		if a, ok := catalog.Get(id); ok {
			usable = append(usable, a)
		}
	}

	if weakest != nil && weakest.HP*2 < weakest.MaxHP && !(p.IsWarlock && !weakest.IsWarlock) {
		for _, a := range usable {
			if _, ok := a.Effect.Effect.(game.Heal); !ok {
				continue
			}
			if a.Allows(game.TargetPlayer) {
				return a.ID, string(weakest.ID)
			}
			if weakest.ID == p.ID && a.Allows(game.TargetSelf) {
				return a.ID, string(p.ID)
			}
		}
	}

	strikeVictim := p.IsWarlock && len(victims) > 0 && rng.Intn(2) == 0
	for _, a := range usable {
		switch a.Effect.Effect.(type) {
		case game.Damage, game.Poison:
		default:
			continue
		}
		if strikeVictim && a.Allows(game.TargetPlayer) {
			return a.ID, string(victims[rng.Intn(len(victims))].ID)
		}
		if a.Allows(game.TargetMonster) {
			return a.ID, game.MonsterID
		}
	}
	if len(p.Abilities) == 0 {
		return "", ""
	}
	return p.Abilities[0], string(p.ID)
}

func racialTarget(a *game.Ability, g *game.Game, p *game.Player) string {
	if a.Allows(game.TargetSelf) {
		return string(p.ID)
	}
	for _, o := range g.AlivePlayers() {
		if o.ID != p.ID {
			return string(o.ID)
		}
	}
	return string(p.ID)
}

func printEntries(out io.Writer, entries []game.LogEntry, private bool) {
	for _, e := range entries {
		if !e.Public {
			if !private {
				continue
			}
			viewer := e.Viewer
			if viewer == "" {
				viewer = e.Target
			}
			fmt.Fprintf(out, "  [private -> %s] %s\n", viewer, e.Message)
			continue
		}
		if e.Type == game.EntryRound {
			fmt.Fprintf(out, "== %s\n", e.Message)
			continue
		}
		fmt.Fprintf(out, "  %s\n", e.Message)
	}
}

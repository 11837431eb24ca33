package cli

import (
	"context"
	"fmt"

	"github.com/platinummonkey/petstore/pkg/storage"
)

func newSeedCommand() *Command {
	cmd := &Command{
		Name:        "seed",
		Description: "Write the starter catalog to a JSON document",
		Flags:       newFlagSet("seed"),
		Run:         runSeed,
	}

	cmd.Flags.String("file", "pets.json", "Path of the JSON document to overwrite")

	return cmd
}

func runSeed(args []string) error {
	cmd := newSeedCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	path := cmd.Flags.Lookup("file").Value.String()
	store, err := storage.NewFileDocumentStore(path, false)
	if err != nil {
		return err
	}
	if err := store.Seed(context.Background()); err != nil {
		return fmt.Errorf("failed to seed %s: %w", path, err)
	}

	fmt.Fprintf(stdout, "Seeded %s\n", path)
	return nil
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/platinummonkey/petstore/pkg/pets"
)

func newListCommand() *Command {
	cmd := &Command{
		Name:        "list",
		Description: "List every pet in the store",
		Flags:       newFlagSet("list"),
		Run:         runList,
	}

	cmd.Flags.String("server", defaultServer(), "Pet store URL")
	cmd.Flags.Bool("json", false, "Output in JSON format")

	return cmd
}

func newGetCommand() *Command {
	cmd := &Command{
		Name:        "get",
		Description: "Show one pet",
		Flags:       newFlagSet("get"),
		Run:         runGet,
	}

	cmd.Flags.String("server", defaultServer(), "Pet store URL")
	cmd.Flags.String("id", "", "Pet id")
	cmd.Flags.Bool("json", false, "Output in JSON format")

	return cmd
}

func newAddCommand() *Command {
	cmd := &Command{
		Name:        "add",
		Description: "Add a pet to the store",
		Flags:       newFlagSet("add"),
		Run:         runAdd,
	}

	cmd.Flags.String("server", defaultServer(), "Pet store URL")
	addPetFlags(cmd.Flags)

	return cmd
}

func newUpdateCommand() *Command {
	cmd := &Command{
		Name:        "update",
		Description: "Replace every field of a pet",
		Flags:       newFlagSet("update"),
		Run:         runUpdate,
	}

	cmd.Flags.String("server", defaultServer(), "Pet store URL")
	cmd.Flags.String("id", "", "Pet id")
	addPetFlags(cmd.Flags)

	return cmd
}

func newRemoveCommand() *Command {
	cmd := &Command{
		Name:        "remove",
		Description: "Remove a pet from the store",
		Flags:       newFlagSet("remove"),
		Run:         runRemove,
	}

	cmd.Flags.String("server", defaultServer(), "Pet store URL")
	cmd.Flags.String("id", "", "Pet id")

	return cmd
}

func addPetFlags(fs *flag.FlagSet) {
	fs.String("name", "", "Pet name")
	fs.String("breed", "", "Pet breed")
	fs.String("price", "", "Pet price")
}

// petFromFlags requires all three fields, matching what the API accepts
func petFromFlags(fs *flag.FlagSet) (pets.Pet, error) {
	given := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { given[f.Name] = true })
	if !given["name"] || !given["breed"] || !given["price"] {
		return pets.Pet{}, fmt.Errorf("name, breed and price are required")
	}

	// -name "" is a value, the same as in the API body
	name := fs.Lookup("name").Value.String()
	breed := fs.Lookup("breed").Value.String()
	rawPrice := fs.Lookup("price").Value.String()

	price, err := strconv.ParseFloat(rawPrice, 64)
	if err != nil {
		return pets.Pet{}, fmt.Errorf("invalid price %q: %w", rawPrice, err)
	}

	return pets.Pet{Name: name, Breed: breed, Price: price}, nil
}

func requireID(fs *flag.FlagSet) (string, error) {
	id := fs.Lookup("id").Value.String()
	if id == "" && fs.NArg() > 0 {
		id = fs.Arg(0)
	}
	if id == "" {
		return "", fmt.Errorf("pet id is required")
	}
	return id, nil
}

func clientFromFlags(fs *flag.FlagSet) *Client {
	return NewClient(fs.Lookup("server").Value.String())
}

func notFound(id string, err error) error {
	if errors.Is(err, pets.ErrNotFound) {
		return fmt.Errorf("pet %s: %w", id, pets.ErrNotFound)
	}
	return err
}

func runList(args []string) error {
	cmd := newListCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	records, err := clientFromFlags(cmd.Flags).List(context.Background())
	if err != nil {
		return err
	}

	if cmd.Flags.Lookup("json").Value.String() == "true" {
		return writeJSON(records)
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBREED\tPRICE")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rec.ID, rec.Name, rec.Breed, formatPrice(rec.Price))
	}
	w.Flush()

	fmt.Fprintf(stdout, "\nTotal: %d pets\n", len(records))
	return nil
}

func runGet(args []string) error {
	cmd := newGetCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	id, err := requireID(cmd.Flags)
	if err != nil {
		return err
	}

	record, err := clientFromFlags(cmd.Flags).Get(context.Background(), id)
	if err != nil {
		return notFound(id, err)
	}

	if cmd.Flags.Lookup("json").Value.String() == "true" {
		return writeJSON(record)
	}

	fmt.Fprintf(stdout, "ID:    %s\n", record.ID)
	fmt.Fprintf(stdout, "Name:  %s\n", record.Name)
	fmt.Fprintf(stdout, "Breed: %s\n", record.Breed)
	fmt.Fprintf(stdout, "Price: %s\n", formatPrice(record.Price))
	return nil
}

func runAdd(args []string) error {
	cmd := newAddCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	pet, err := petFromFlags(cmd.Flags)
	if err != nil {
		return err
	}

	id, err := clientFromFlags(cmd.Flags).Add(context.Background(), pet)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Added %s with id %s\n", pet.Name, id)
	return nil
}

func runUpdate(args []string) error {
	cmd := newUpdateCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	id, err := requireID(cmd.Flags)
	if err != nil {
		return err
	}
	pet, err := petFromFlags(cmd.Flags)
	if err != nil {
		return err
	}

	if err := clientFromFlags(cmd.Flags).Update(context.Background(), id, pet); err != nil {
		return notFound(id, err)
	}

	fmt.Fprintf(stdout, "Updated pet %s\n", id)
	return nil
}

func runRemove(args []string) error {
	cmd := newRemoveCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	id, err := requireID(cmd.Flags)
	if err != nil {
		return err
	}

	if err := clientFromFlags(cmd.Flags).Remove(context.Background(), id); err != nil {
		return notFound(id, err)
	}

	fmt.Fprintf(stdout, "Removed pet %s\n", id)
	return nil
}

func writeJSON(v interface{}) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

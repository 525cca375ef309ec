package record

import (
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/shelf/lib/catalog"
	"github.com/ValentinKolb/shelf/lib/record"
	"github.com/spf13/cobra"
	"strconv"
)

var (
	addCmd = &cobra.Command{
		Use:   "add [title] [author]",
		Short: "Adds a new available record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			categoryName, _ := cmd.Flags().GetString("category")
			category, err := record.ParseCategory(categoryName)
			if err != nil {
				return err
			}
			r, err := rpcCatalog.Add(catalog.Payload{
				Title:    args[0],
				Author:   args[1],
				Category: category,
			})
			if err != nil {
				return err
			}
			fmt.Println(r)
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [id]",
		Short: "Reads a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			r, err := rpcCatalog.Get(id)
			if err != nil {
				return err
			}
			fmt.Println(r)
			return nil
		},
	}
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists all records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printRecords(rpcCatalog.ListAll())
		},
	}
	availableCmd = &cobra.Command{
		Use:   "available",
		Short: "Lists all records that can be borrowed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printRecords(rpcCatalog.ListAvailable())
		},
	}
	searchCmd = &cobra.Command{
		Use:   "search [category]",
		Short: "Lists all records of a category (fiction, non-fiction, science, technology)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := record.ParseCategory(args[0])
			if err != nil {
				return err
			}
			return printRecords(rpcCatalog.SearchByCategory(category))
		},
	}
	borrowCmd = &cobra.Command{
		Use:   "borrow [id]",
		Short: "Borrows a record for the caller (see --caller)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			r, err := rpcCatalog.Borrow(id, clientConfig.Caller)
			if err != nil {
				return err
			}
			fmt.Println(r)
			return nil
		},
	}
	returnCmd = &cobra.Command{
		Use:   "return [id]",
		Short: "Returns a borrowed record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			r, err := rpcCatalog.Return(id)
			if err != nil {
				return err
			}
			fmt.Println(r)
			return nil
		},
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [id]",
		Short: "Deletes a record, borrowed or not",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := rpcCatalog.Delete(id); err != nil {
				return err
			}
			fmt.Println("deleted successfully")
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints statistics of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := rpcCatalog.Info()
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
)

func init() {
	addCmd.Flags().String("category", record.Fiction.String(), "Category of the record (fiction, non-fiction, science, technology)")
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id must be a positive number: %w", err)
	}
	return id, nil
}

func printRecords(records []record.Record, err error) error {
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Println(r)
	}
	fmt.Printf("(%d records)\n", len(records))
	return nil
}

package sqlcmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/crucial707/sqlgate/cmd/cli/output"
	"github.com/crucial707/sqlgate/cmd/cli/root"
	"github.com/crucial707/sqlgate/internal/gateway"
	"github.com/spf13/cobra"
)

// result covers both the read and the write body of GET /sql.
type result struct {
	Status       string           `json:"status"`
	Columns      []string         `json:"columns"`
	Data         []map[string]any `json:"data"`
	Message      string           `json:"message"`
	AffectedRows *int64           `json:"affected_rows"`
}

// ==========================
// Init SQL
// ==========================
func InitSQL(rootCmd *cobra.Command) {
	sqlCmd := &cobra.Command{
		Use:   "sql",
		Short: "Use the ad-hoc SQL gateway",
	}

	sqlCmd.AddCommand(encodeCmd(), runCmd())
	rootCmd.AddCommand(sqlCmd)
}

// ==========================
// ENCODE
// ==========================
func encodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode [statement]",
		Short: "Print the query parameter value for a statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), gateway.Encode(args[0]))
			return nil
		},
	}
}

// ==========================
// RUN
// ==========================
func runCmd() *cobra.Command {
	var rawParams []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run [statement]",
		Short: "Execute a statement through GET /sql",
		Long: `Encode the statement, send it to GET /sql and print the result.
Named parameters are bound to :name placeholders, e.g.

  sqlgate sql run "select * from users where id = :id" --param id=1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(rawParams)
			if err != nil {
				return err
			}
			path, err := requestPath(args[0], params)
			if err != nil {
				return err
			}

			var res result
			if err := root.Client().Do(cmd.Context(), "GET", path, nil, &res); err != nil {
				return err
			}
			if asJSON {
				return output.RenderJSON(cmd.OutOrStdout(), res)
			}
			renderResult(cmd, res)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&rawParams, "param", nil, "named parameter as name=value (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON response")
	return cmd
}

func requestPath(statement string, params map[string]any) (string, error) {
	path := "/sql?query=" + gateway.Encode(statement)
	if len(params) == 0 {
		return path, nil
	}
	enc, err := gateway.EncodeParams(params)
	if err != nil {
		return "", err
	}
	return path + "&params=" + enc, nil
}

// parseParams turns name=value pairs into typed values: integers, floats,
// booleans and null are recognised, anything else is a string.
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --param %q, want name=value", p)
		}
		if _, dup := params[name]; dup {
			return nil, fmt.Errorf("duplicate --param %q", name)
		}
		params[name] = paramValue(value)
	}
	return params, nil
}

func paramValue(s string) any {
	if s == "null" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func renderResult(cmd *cobra.Command, res result) {
	out := cmd.OutOrStdout()
	if res.AffectedRows != nil {
		fmt.Fprintf(out, "%s (%d row(s) affected)\n", res.Message, *res.AffectedRows)
		return
	}

	columns := res.Columns
	if len(columns) == 0 && len(res.Data) > 0 {
		for k := range res.Data[0] {
			columns = append(columns, k)
		}
		sort.Strings(columns)
	}

	rows := make([][]any, 0, len(res.Data))
	for _, rec := range res.Data {
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = cell(rec[c])
		}
		rows = append(rows, row)
	}
	output.RenderTable(out, columns, rows)
	fmt.Fprintf(out, "%d row(s)\n", len(rows))
}

func cell(v any) any {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case map[string]any, []any:
		b, _ := json.Marshal(val)
		return string(b)
	default:
		return val
	}
}

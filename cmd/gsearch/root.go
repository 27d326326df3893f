package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gsearch/common"
	"gsearch/internal/config"
	"gsearch/internal/gsearch"
	"gsearch/internal/models"
)

// searcherFactory builds the searcher a command runs against.
type searcherFactory func(cfg config.Config, logger *zap.Logger) (gsearch.Searcher, error)

type cli struct {
	out         io.Writer
	newSearcher searcherFactory

	configPath string
	logLevel   string
	count      int
	asJSON     bool
}

func newCLI(out io.Writer) *cli {
	return &cli{out: out, newSearcher: newClient}
}

func newClient(cfg config.Config, logger *zap.Logger) (gsearch.Searcher, error) {
	httpClient, _, err := cfg.Search.HTTPClient(os.Getenv("HOSTNAME"))
	if err != nil {
		return nil, err
	}
	return gsearch.NewClient(cfg.Search.ClientOptions(httpClient, logger)...), nil
}

// newRootCmd creates the root command with one subcommand per search type.
func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "gsearch",
		Short:        "Paginated web, image, local, video, news, patent and book search",
		SilenceUsage: true,
	}
	rootCmd.SetOut(c.out)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "Path to YAML config (default $"+config.EnvConfigPath+")")
	flags.StringVar(&c.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	flags.IntVarP(&c.count, "count", "n", 0, "Number of results to return (default from config)")
	flags.BoolVar(&c.asJSON, "json", false, "Print results as JSON records")

	for _, searchType := range models.SearchTypes {
		rootCmd.AddCommand(c.newSearchCommand(searchType))
	}
	rootCmd.AddCommand(c.newTypesCommand())

	return rootCmd
}

var commandAliases = map[models.SearchType][]string{
	models.SearchTypeImage:  {"images"},
	models.SearchTypeLocal:  {"maps"},
	models.SearchTypeVideo:  {"videos"},
	models.SearchTypePatent: {"patents"},
	models.SearchTypeBook:   {"books"},
}

// newSearchCommand registers one flag per filter key the type accepts.
func (c *cli) newSearchCommand(searchType models.SearchType) *cobra.Command {
	filters := make(map[string]*string)
	cmd := &cobra.Command{
		Use:     string(searchType) + " QUERY...",
		Aliases: commandAliases[searchType],
		Short:   fmt.Sprintf("Run a %s search", searchType),
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := models.SearchRequest{
				Type:  searchType,
				Query: strings.Join(args, " "),
			}
			for key, value := range filters {
				if cmd.Flags().Changed(flagName(key)) {
					if req.Filters == nil {
						req.Filters = make(map[string]string)
					}
					req.Filters[key] = *value
				}
			}
			return c.runSearch(cmd, req)
		},
	}
	for _, key := range gsearch.FilterKeys[searchType] {
		filters[key] = cmd.Flags().String(flagName(key), "", filterUsage[key])
	}
	return cmd
}

func (c *cli) newTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Args:  cobra.NoArgs,
		Short: "List search types with their page ceiling and filters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			searcher, err := c.newSearcher(cfg, zap.NewNop())
			if err != nil {
				return err
			}
			pager, _ := searcher.(interface{ MaxPerCall(models.SearchType) int })
			for _, searchType := range models.SearchTypes {
				maxPerCall := gsearch.DefaultMaxPerCall[searchType]
				if pager != nil {
					maxPerCall = pager.MaxPerCall(searchType)
				}
				keys := append([]string(nil), gsearch.FilterKeys[searchType]...)
				sort.Strings(keys)
				fmt.Fprintf(c.out, "%-7s max_per_call=%-3d filters=%s\n", searchType, maxPerCall, strings.Join(keys, ","))
			}
			return nil
		},
	}
}

func (c *cli) runSearch(cmd *cobra.Command, req models.SearchRequest) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if c.logLevel != "" {
		level = c.logLevel
	}
	logger, err := common.NewLogger(level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	req.Count = cfg.Search.DefaultCount
	if cmd.Flags().Changed("count") {
		req.Count = c.count
	}
	if err := gsearch.ValidateRequest(req); err != nil {
		return err
	}

	searcher, err := c.newSearcher(cfg, logger)
	if err != nil {
		return err
	}
	items, err := searcher.Search(cmd.Context(), req)
	if err != nil {
		return err
	}
	logger.Debug("search finished", zap.String("type", string(req.Type)), zap.Int("results", len(items)))

	if c.asJSON {
		return writeRecords(c.out, items)
	}
	writeText(c.out, items)
	return nil
}

func writeRecords(out io.Writer, items []models.Item) error {
	records := make([]models.ResultRecord, 0, len(items))
	for i, item := range items {
		record, err := models.NewResultRecord(i+1, item)
		if err != nil {
			return err
		}
		records = append(records, record)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func writeText(out io.Writer, items []models.Item) {
	for i, item := range items {
		lines := strings.Split(item.String(), "\n")
		fmt.Fprintf(out, "%d. %s\n", i+1, lines[0])
		for _, line := range lines[1:] {
			fmt.Fprintf(out, "   %s\n", line)
		}
		if u := item.ResultURL(); u != "" && !strings.Contains(item.String(), u) {
			fmt.Fprintf(out, "   %s\n", u)
		}
	}
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

var filterUsage = map[string]string{
	"safe":         "Safe search level: active, moderate, off",
	"lang":         "Restrict to a document language, e.g. en or lang_fr",
	"site":         "Restrict to one site, e.g. golang.org",
	"dedupe":       "Duplicate collapsing: on or off",
	"size":         "Image size: icon, small, medium, large, xlarge, xxlarge, huge",
	"colorization": "Image colorization: gray or color",
	"color":        "Dominant image color, e.g. blue",
	"image_type":   "Image type: face, photo, clipart, lineart",
	"file_type":    "Image file type: jpg, png, gif, bmp",
	"center":       "Search center as lat,lng",
	"result_type":  "Local listings: blended, kmlonly, localonly",
	"sort":         "Result order: relevance or date",
	"topic":        "News section, e.g. world or sports",
	"location":     "News location, e.g. a city or zip code",
	"edition":      "News edition, e.g. us or uk",
	"status":       "Patent status: issued or filed",
	"full_view":    "Only books with full view: true or false",
	"library":      "Restrict to a named user library",
}

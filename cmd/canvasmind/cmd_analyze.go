package main

import (
	"fmt"
	"strings"

	"canvasmind/cmd/canvasmind/ui"
	"canvasmind/internal/types"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	sessionID     string
	contextPairs  []string
	recentQueries []string
	outputFormat  string
)

// analyzeCmd analyzes one request
var analyzeCmd = &cobra.Command{
	Use:   "analyze QUERY",
	Short: "Analyze a creative request",
	Long: `Classifies the request, routes it to a project of the session and
predicts the next steps.

Examples:
  canvasmind analyze "Создай логотип для кофейни" -s alice
  canvasmind analyze "векторизуй его" -s alice --context hasRecentImages=true
  canvasmind analyze "принт на футболку" --recent "хочу мерч" -f markdown`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := checkFormat(outputFormat, true); err != nil {
		return err
	}
	reqCtx, err := parseContext(contextPairs, recentQueries)
	if err != nil {
		return err
	}

	ctx, cancel := newContext()
	defer cancel()

	query := strings.Join(args, " ")
	res, err := engine.AnalyzeRequest(ctx, query, sessionID, reqCtx)
	if err != nil {
		return err
	}
	logger.Debug("request analyzed",
		zap.String("session", res.SessionID),
		zap.Int("confidence", res.Confidence),
		zap.Bool("fallback", res.Fallback),
		zap.Duration("took", res.ProcessingTime))

	out, err := renderResult(res, outputFormat, ui.DefaultStyles())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// parseContext turns key=value flags into the request context bag. Recent
// queries come from their own flag so they keep their order.
func parseContext(pairs, recent []string) (map[string]interface{}, error) {
	if len(pairs) == 0 && len(recent) == 0 {
		return nil, nil
	}
	out := make(map[string]interface{}, len(pairs)+1)
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: context entry %q must be key=value", types.ErrInvalidInput, pair)
		}
		out[key] = strings.TrimSpace(value)
	}
	if len(recent) > 0 {
		out[types.ContextRecentQueries] = append([]string(nil), recent...)
	}
	return out, nil
}

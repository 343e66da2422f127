package llmoracle

import (
	"encoding/json"
	"fmt"

	"github.com/waypoint-ai/convomcts/oracle"
)

func goalSection(tag, goal string) string {
	if goal == "" {
		return ""
	}
	return fmt.Sprintf("<%s>%s</%s>\n", tag, goal, tag)
}

// initialBranchesPrompt mirrors ResponseGenerator._build_initial_branches_prompt
// (original_source/app/services/conversation_analysis/response_generator.py).
func initialBranchesPrompt(numBranches int, goal string) string {
	section := ""
	if goal != "" {
		section = fmt.Sprintf("\n<conversation_goal>\nThe user wants to: %s\n</conversation_goal>", goal)
	}
	return fmt.Sprintf(`Generate %d diverse responses to continue this conversation.
%s

Return JSON:
{
    "responses": ["First response...", "Second response...", ...]
}`, numBranches, section)
}

// expansionPrompt mirrors ResponseGenerator._build_expansion_prompt.
func expansionPrompt(existing []string, goal string) string {
	section := ""
	if goal != "" {
		section = goalSection("goal", "Help achieve: "+goal)
	}
	existingJSON, _ := json.Marshal(existing)
	return fmt.Sprintf(`Generate ONE new response different from existing ones.
%s
<previous_responses>
%s
</previous_responses>

Return JSON:
{"response": "Your new response here"}`, section, string(existingJSON))
}

// simulationPrompt mirrors ConversationSimulator._build_simulation_prompt.
func simulationPrompt(depth int, goal string) string {
	section := goalSection("conversation_goal", goal)
	return fmt.Sprintf(`Simulate realistic conversation continuation.
%sGenerate %d back-and-forth exchanges.

Return JSON:
{
    "simulation": [
        {"role": "user", "content": "..."},
        {"role": "assistant", "content": "..."}
    ],
    "user_reactions": ["User emotional state after each exchange"]
}`, section, depth)
}

// scoringPrompt mirrors ConversationScorer._build_scoring_prompt.
func scoringPrompt(sim oracle.SimulationResult, goal string) string {
	goalSpecific := ""
	if goal != "" {
		goalSpecific = fmt.Sprintf(`
<goal_specific_scoring>
Conversation goal: %s
Score 3-5 metrics specific to achieving this goal (0.0-1.0).
</goal_specific_scoring>`, goal)
	}
	simJSON, _ := json.Marshal(simulationDataJSON(sim))
	return fmt.Sprintf(`Score this conversation based on quality metrics.

General metrics (0.0-1.0):
- clarity: How clear and understandable
- relevance: How well responses address context
- engagement: Likelihood to maintain interest
- authenticity: How genuine and natural
- coherence: Logical flow
- respectfulness: Appropriate tone
%s

<simulation_data>
%s
</simulation_data>

Return JSON:
{
    "general_metrics": {"clarity": 0.85, ...},
    "goal_metrics": {"metric": 0.8, ...},
    "overall_score": 0.87,
    "reasoning": "Brief explanation"
}`, goalSpecific, string(simJSON))
}

func simulationDataJSON(sim oracle.SimulationResult) map[string]any {
	simulation := make([]map[string]string, len(sim.Simulation))
	for i, ex := range sim.Simulation {
		simulation[i] = map[string]string{"role": ex.Role, "content": ex.Content}
	}
	return map[string]any{
		"simulation":     simulation,
		"user_reactions": sim.UserReactions,
	}
}

// analysisPrompt mirrors ConversationAnalyzer._build_analysis_prompt.
func analysisPrompt(best oracle.BranchView, bestIndex int, all []oracle.BranchView, goal string) string {
	section := goalSection("conversation_goal", goal)

	type option struct {
		Response    string  `json:"response"`
		Score       float64 `json:"score"`
		Visits      int     `json:"visits"`
		KeyStrength [2]any  `json:"key_strength"`
	}
	options := make([]option, len(all))
	for i, b := range all {
		options[i] = option{
			Response:    truncate(b.Response, 100) + "...",
			Score:       b.Score,
			Visits:      b.Visits,
			KeyStrength: keyStrength(b.GeneralMetrics),
		}
	}
	optionsJSON, _ := json.MarshalIndent(options, "", "    ")

	return fmt.Sprintf(`Analyze why the selected response is optimal.
%s
<selected_response>
Response: %s
Score: %.3f
Visits: %d
</selected_response>

<all_options>
%s
</all_options>

Provide 2-3 paragraph analysis covering:
- Why this response best serves the goals
- Key strengths based on metrics
- Comparison to alternatives
- Potential considerations`, section, best.Response, best.Score, best.Visits, string(optionsJSON))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// keyStrength returns the highest-scoring metric name/value pair, matching
// Python's max(..., default=("", 0)) over a dict's items.
func keyStrength(metrics map[string]float64) [2]any {
	if len(metrics) == 0 {
		return [2]any{"", 0.0}
	}
	bestName := ""
	bestVal := -1.0
	first := true
	for name, val := range metrics {
		if first || val > bestVal {
			bestName, bestVal, first = name, val, false
		}
	}
	return [2]any{bestName, bestVal}
}

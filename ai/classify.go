package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/contentgraph/docengine/workflow"
)

// Classifier dispatches a document's content through a ChatModel to pick
// one of a fixed label set (spec §6: the optional "classify_document"
// custom action).
type Classifier struct {
	Model  ChatModel
	Labels []string
}

// NewClassifyAction builds a workflow.CustomActionFunc that classifies
// actx.Variables["document.content"] into one of labels using model, and
// writes the result to actx.Variables["document.classification"].
func NewClassifyAction(model ChatModel, labels []string) workflow.CustomActionFunc {
	c := &Classifier{Model: model, Labels: labels}
	return c.Run
}

// Run implements workflow.CustomActionFunc.
func (c *Classifier) Run(ctx context.Context, actx *workflow.ActionContext, params map[string]interface{}) workflow.ActionResult {
	content, _ := actx.Variables["document.content"].(string)
	if content == "" {
		return workflow.ActionResult{Kind: workflow.ActionError, Message: "classify_document: document.content is empty"}
	}

	prompt := fmt.Sprintf(
		"Classify the document below into exactly one of these labels: %s.\nRespond with only the label.\n\n%s",
		strings.Join(c.Labels, ", "), content,
	)
	out, err := c.Model.Chat(ctx, []Message{
		{Role: RoleSystem, Content: "You are a precise document classifier."},
		{Role: RoleUser, Content: prompt},
	}, nil)
	if err != nil {
		return workflow.ActionResult{Kind: workflow.ActionError, Message: "classify_document: " + err.Error()}
	}

	label := c.matchLabel(out.Text)
	if label == "" {
		return workflow.ActionResult{Kind: workflow.ActionRequiresIntervention, Message: "classify_document: model returned no recognizable label: " + out.Text}
	}

	actx.Variables["document.classification"] = label
	return workflow.ActionResult{Kind: workflow.ActionSuccess, Message: label}
}

func (c *Classifier) matchLabel(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, label := range c.Labels {
		if strings.Contains(text, strings.ToLower(label)) {
			return label
		}
	}
	return ""
}

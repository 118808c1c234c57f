package slack

import (
	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/crewhub/internal/messenger"
)

// Slack rejects section blocks with more than ten fields.
const maxSectionFields = 10

// BuildMessageBlocks renders a title section followed by field sections.
func BuildMessageBlocks(msg messenger.Message) []slacklib.Block {
	blocks := []slacklib.Block{
		slacklib.NewSectionBlock(
			slacklib.NewTextBlockObject(slacklib.MarkdownType, "*"+msg.Title+"*", false, false),
			nil,
			nil,
		),
	}

	for start := 0; start < len(msg.Fields); start += maxSectionFields {
		end := min(start+maxSectionFields, len(msg.Fields))
		fields := make([]*slacklib.TextBlockObject, 0, end-start)
		for _, f := range msg.Fields[start:end] {
			fields = append(fields, slacklib.NewTextBlockObject(slacklib.MarkdownType, "*"+f.Label+"*\n"+f.Value, false, false))
		}
		blocks = append(blocks, slacklib.NewSectionBlock(nil, fields, nil))
	}

	return blocks
}

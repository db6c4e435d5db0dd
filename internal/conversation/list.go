package conversation

import "github.com/V4T54L/voicewatch/internal/domain"

// group collects the records of one transaction.
type group struct {
	transactionID string
	props         Properties
}

// Group sorts a batch of logs into per-transaction properties, keeping the order in
// which transactions first appear. Records tagged "request"/"response" become the
// request and response (the first one wins), records with a stack become stack
// traces and everything else is treated as skill output.
func Group(records []domain.LogRecord) []Properties {
	index := make(map[string]int)
	var groups []*group

	for i := range records {
		rec := records[i]
		pos, ok := index[rec.TransactionID]
		if !ok {
			pos = len(groups)
			index[rec.TransactionID] = pos
			groups = append(groups, &group{transactionID: rec.TransactionID})
		}
		g := groups[pos]

		switch {
		case rec.HasTag(domain.TagRequest):
			if g.props.Request == nil {
				g.props.Request = &rec
			}
		case rec.HasTag(domain.TagResponse):
			if g.props.Response == nil {
				g.props.Response = &rec
			}
		case rec.Stack != "":
			g.props.StackTraces = append(g.props.StackTraces, domain.StackTrace{
				ID:            rec.ID,
				TransactionID: rec.TransactionID,
				Timestamp:     rec.Timestamp,
				Message:       textOf(rec.Payload),
				Raw:           rec.Stack,
			})
		default:
			g.props.Outputs = append(g.props.Outputs, domain.Output{
				ID:            rec.ID,
				TransactionID: rec.TransactionID,
				Timestamp:     rec.Timestamp,
				Level:         rec.Level,
				Message:       textOf(rec.Payload),
			})
		}
	}

	props := make([]Properties, len(groups))
	for i, g := range groups {
		props[i] = g.props
	}
	return props
}

// FromLogs groups a batch of logs and builds a conversation per transaction.
// Transactions without a response are skipped and their ids returned.
func FromLogs(records []domain.LogRecord) (convos []*Conversation, skipped []string) {
	for _, props := range Group(records) {
		c, err := New(props)
		if err != nil {
			skipped = append(skipped, transactionOf(props))
			continue
		}
		convos = append(convos, c)
	}
	return convos, skipped
}

func transactionOf(p Properties) string {
	switch {
	case p.Request != nil:
		return p.Request.TransactionID
	case len(p.Outputs) > 0:
		return p.Outputs[0].TransactionID
	case len(p.StackTraces) > 0:
		return p.StackTraces[0].TransactionID
	default:
		return ""
	}
}

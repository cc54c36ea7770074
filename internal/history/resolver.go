package history

import (
	"fmt"
	"strconv"
	"strings"
)

// Resolver turns command-line transcript references into stored
// conversations. A reference is one of: the @last or @first alias, a
// 1-based listing position, a conv- prefixed ID, or a case-insensitive
// fragment of a saved title.
type Resolver struct {
	store *Store
}

func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the ID of the conversation a reference points at.
func (r *Resolver) Resolve(ref string) (string, error) {
	conv, err := r.ResolveWithInfo(ref)
	if err != nil {
		return "", err
	}
	return conv.ID, nil
}

// ResolveWithInfo resolves a reference to the full conversation.
// Listing order is most recent first, matching 'history' output, so
// position 1 and @last name the same conversation.
func (r *Resolver) ResolveWithInfo(ref string) (*Conversation, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("missing conversation reference")
	}

	saved, err := r.store.ListConversations()
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	if len(saved) == 0 {
		return nil, fmt.Errorf("history is empty")
	}

	switch {
	case strings.EqualFold(ref, "@last"):
		return saved[0], nil
	case strings.EqualFold(ref, "@first"):
		return saved[len(saved)-1], nil
	case strings.HasPrefix(ref, "conv-"):
		return findByID(saved, ref)
	}

	if pos, err := strconv.Atoi(ref); err == nil {
		return pickPosition(saved, pos)
	}

	return matchTitle(saved, ref)
}

func findByID(saved []*Conversation, id string) (*Conversation, error) {
	for _, conv := range saved {
		if conv.ID == id {
			return conv, nil
		}
	}
	return nil, fmt.Errorf("no conversation with ID %s", id)
}

func pickPosition(saved []*Conversation, pos int) (*Conversation, error) {
	if pos < 1 || pos > len(saved) {
		return nil, fmt.Errorf("position %d does not exist, history holds %d conversation(s)", pos, len(saved))
	}
	return saved[pos-1], nil
}

// matchTitle finds the single conversation whose title contains the
// fragment. More than one hit is an error so a short fragment never
// silently picks the wrong transcript.
func matchTitle(saved []*Conversation, fragment string) (*Conversation, error) {
	needle := strings.ToLower(fragment)

	var hits []*Conversation
	for _, conv := range saved {
		if strings.Contains(strings.ToLower(conv.Title), needle) {
			hits = append(hits, conv)
		}
	}

	switch len(hits) {
	case 1:
		return hits[0], nil
	case 0:
		return nil, fmt.Errorf("no conversation title contains %q", fragment)
	}

	titles := make([]string, len(hits))
	for i, conv := range hits {
		titles[i] = fmt.Sprintf("%q", conv.Title)
	}
	return nil, fmt.Errorf("%q matches multiple conversations (%s), use a position or ID",
		fragment, strings.Join(titles, ", "))
}

// ReferenceHelp describes the accepted reference forms for command help.
func ReferenceHelp() string {
	return `Conversations can be referenced as:
  @last       the most recently updated conversation
  @first      the oldest conversation
  2           position in 'coursechat history' output (1-based)
  conv-...    exact conversation ID
  fragment    part of a title (must match exactly one)`
}

package intent

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/iishyfishyy/learnq/internal/agent"
	lqerrors "github.com/iishyfishyy/learnq/internal/errors"
	"github.com/iishyfishyy/learnq/internal/logging"
)

// Directory is the membership view the resolver checks against.
type Directory interface {
	Titles() []string
	HasTitle(title string) bool
	UserNames() []string
	HasUserName(name string) bool
}

// Resolver repairs candidate names so that every name it returns exists in
// the catalog exactly.
type Resolver struct {
	agent   agent.Agent
	catalog Directory
}

// NewResolver creates a resolver.
func NewResolver(a agent.Agent, d Directory) *Resolver {
	return &Resolver{agent: a, catalog: d}
}

// ResolveCourse returns the catalog title for candidate. An exact title is
// returned without calling the model. Otherwise the model picks the closest
// title and its answer must itself be a catalog title.
func (r *Resolver) ResolveCourse(ctx context.Context, candidate string) (string, error) {
	return r.resolve(ctx, matchTarget{
		kind:    "course title",
		options: r.catalog.Titles,
		has:     r.catalog.HasTitle,
		fail:    lqerrors.NewCourseNotResolvedError,
	}, candidate)
}

// ResolveUser is ResolveCourse for learner names.
func (r *Resolver) ResolveUser(ctx context.Context, candidate string) (string, error) {
	return r.resolve(ctx, matchTarget{
		kind:    "learner name",
		options: r.catalog.UserNames,
		has:     r.catalog.HasUserName,
		fail:    lqerrors.NewUserNotResolvedError,
	}, candidate)
}

type matchTarget struct {
	kind    string
	options func() []string
	has     func(string) bool
	fail    func(candidate, suggestion string) *lqerrors.LearnqError
}

func (r *Resolver) resolve(ctx context.Context, target matchTarget, candidate string) (string, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", target.fail(candidate, "")
	}
	if target.has(candidate) {
		return candidate, nil
	}

	options := target.options()
	if len(options) == 0 {
		return "", target.fail(candidate, "")
	}

	reply, err := r.agent.Complete(ctx, BuildMatchPrompt(target.kind, options, candidate))
	if err != nil {
		return "", transportError("match", err)
	}

	match := cleanMatch(reply)
	log := logging.L().With(zap.String("candidate", candidate), zap.String("match", match))
	if !target.has(match) {
		log.Info("fuzzy_match_rejected")
		return "", target.fail(candidate, match)
	}

	log.Debug("fuzzy_match_accepted")
	return match, nil
}

// cleanMatch trims whitespace and a single pair of surrounding quotes.
func cleanMatch(reply string) string {
	s := strings.TrimSpace(reply)
	for _, q := range []string{`"`, "'", "`"} {
		if len(s) >= 2 && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

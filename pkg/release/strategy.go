package release

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/jj88-npm/lerna/pkg/config"
	"github.com/jj88-npm/lerna/pkg/semverutil"
)

// StrategyKind enumerates how next versions are decided. The order of the
// constants is the selection precedence.
type StrategyKind int

const (
	// StrategyLiteral maps every package to one explicit version.
	StrategyLiteral StrategyKind = iota
	// StrategyIncrement applies a semver increment keyword.
	StrategyIncrement
	// StrategyConventional asks the conventional-commit recommender.
	StrategyConventional
	// StrategyPrompt asks the user.
	StrategyPrompt
)

func (k StrategyKind) String() string {
	return []string{"literal", "increment", "conventional", "prompt"}[k]
}

// Strategy is the tagged bump-decision variant. Exactly one of Literal and
// ReleaseType is populated, depending on Kind.
type Strategy struct {
	Kind        StrategyKind
	Literal     *semver.Version // StrategyLiteral
	ReleaseType string          // StrategyIncrement
}

// SelectStrategy picks the resolution mode from configuration, first match
// wins: explicit literal, explicit increment, conventional commits, prompt.
func SelectStrategy(cfg *config.Config) (Strategy, error) {
	if cfg.Bump != "" {
		if semverutil.IsReleaseType(cfg.Bump) {
			return Strategy{Kind: StrategyIncrement, ReleaseType: cfg.Bump}, nil
		}
		v, err := semverutil.Parse(cfg.Bump)
		if err != nil {
			return Strategy{}, fmt.Errorf("%w: %q", ErrInvalidVersion, cfg.Bump)
		}
		return Strategy{Kind: StrategyLiteral, Literal: v}, nil
	}
	if cfg.ConventionalCommits {
		return Strategy{Kind: StrategyConventional}, nil
	}
	return Strategy{Kind: StrategyPrompt}, nil
}

// resolvePreid picks the prerelease identifier for an increment: the
// configured preid wins, then the package's existing id when the increment
// continues an existing prerelease, then "alpha".
func resolvePreid(releaseType, configured string, current *semver.Version) string {
	if !semverutil.IsPrereleaseType(releaseType) {
		return ""
	}
	if configured != "" {
		return configured
	}
	if releaseType == semverutil.ReleasePrerelease {
		if id := semverutil.PrereleaseID(current); id != "" {
			return id
		}
	}
	return "alpha"
}

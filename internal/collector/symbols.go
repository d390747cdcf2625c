package collector

import (
	"strings"

	"LeverageLab/internal/model"
)

// tickerAliases maps Korean ETF display names to their exchange codes.
var tickerAliases = map[string]string{
	"KODEX 코스피100":     "237350.KS",
	"KODEX 레버리지":       "122630.KS",
	"KODEX 200":        "069500.KS",
	"KODEX 인버스":        "114800.KS",
	"KODEX 200선물인버스2X": "252670.KS",
	"TIGER 미국S&P500":   "360750.KS",
	"TIGER 미국나스닥100":   "371460.KS",
}

// ResolveTicker maps user input to a provider symbol: known aliases first,
// then six-digit KRX codes, otherwise the upper-cased input.
func ResolveTicker(input string) string {
	t := strings.TrimSpace(input)
	if code, ok := tickerAliases[t]; ok {
		return code
	}
	if len(t) == 6 && isDigits(t) {
		return t + ".KS"
	}
	return strings.ToUpper(t)
}

// ResolveConfig returns a copy of cfg with every ticker resolved.
func ResolveConfig(cfg model.StrategyConfig) model.StrategyConfig {
	out := cfg
	out.Base = ResolveTicker(cfg.Base)
	out.Adds = make([]string, 0, len(cfg.Adds))
	for _, a := range cfg.Adds {
		if a = strings.TrimSpace(a); a != "" {
			out.Adds = append(out.Adds, ResolveTicker(a))
		}
	}
	out.Steps = make([]model.Step, len(cfg.Steps))
	for i, s := range cfg.Steps {
		s.Ticker = ResolveTicker(s.Ticker)
		out.Steps[i] = s
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

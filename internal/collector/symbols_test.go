package collector

import (
	"testing"

	"LeverageLab/internal/model"
)

func TestResolveTicker(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"qqq", "QQQ"},
		{"  tqqq ", "TQQQ"},
		{"KODEX 레버리지", "122630.KS"},
		{"TIGER 미국나스닥100", "371460.KS"},
		{"005930", "005930.KS"},
		{"00593", "00593"},
		{"brk.b", "BRK.B"},
	}
	for _, tt := range tests {
		if got := ResolveTicker(tt.in); got != tt.want {
			t.Errorf("ResolveTicker(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveConfig(t *testing.T) {
	cfg := model.StrategyConfig{
		Base:  "qqq",
		Adds:  []string{"tqqq", " ", "122630"},
		Steps: []model.Step{{DropPct: -5, Ticker: "sso"}},
	}
	got := ResolveConfig(cfg)
	if got.Base != "QQQ" || len(got.Adds) != 2 || got.Adds[1] != "122630.KS" || got.Steps[0].Ticker != "SSO" {
		t.Errorf("unexpected resolution: %+v", got)
	}
	if cfg.Steps[0].Ticker != "sso" {
		t.Error("input config must not be modified")
	}
}

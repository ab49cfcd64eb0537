package botui

import (
	"strings"
	"testing"
	"time"

	"telegram-copier/internal/domain/convo"
	"telegram-copier/internal/domain/copyjob"
	"telegram-copier/internal/domain/stats"
)

func TestConfigPanelRunButton(t *testing.T) {
	t.Parallel()

	incomplete := convo.CopyConfig{
		Source:  convo.ChannelRef{ID: 1, Title: "src"},
		StartID: 10,
	}
	text, kb := configPanel(incomplete)
	if strings.Contains(text, "Готово к запуску") {
		t.Error("incomplete config must not announce readiness")
	}
	for _, r := range kb.InlineKeyboard {
		for _, b := range r {
			if b.CallbackData == btnRun {
				t.Error("incomplete config must not offer the run button")
			}
		}
	}

	complete := convo.CopyConfig{
		Source:  convo.ChannelRef{ID: 1, Title: "src"},
		Target:  convo.ChannelRef{ID: 2, Title: "dst"},
		StartID: 10,
		EndID:   19,
	}
	text, kb = configPanel(complete)
	if !strings.Contains(text, "10 сообщений") {
		t.Errorf("complete config must show the message count, got %q", text)
	}
	found := false
	for _, r := range kb.InlineKeyboard {
		for _, b := range r {
			if b.CallbackData == btnRun {
				found = true
			}
		}
	}
	if !found {
		t.Error("complete config must offer the run button")
	}
}

func TestMainMenuDependsOnSession(t *testing.T) {
	t.Parallel()

	text, kb := mainMenu(false, "")
	if !strings.Contains(text, "Сессия не настроена") {
		t.Errorf("unauthorized menu text = %q", text)
	}
	for _, r := range kb.InlineKeyboard {
		for _, b := range r {
			if b.CallbackData == btnConfigure {
				t.Error("configure button must be hidden without a session")
			}
		}
	}

	text, _ = mainMenu(true, "@alice")
	if !strings.Contains(text, "@alice") {
		t.Errorf("authorized menu must name the session owner, got %q", text)
	}
}

func TestResultPanelCancelledHeader(t *testing.T) {
	t.Parallel()

	res := copyjob.Result{
		Counts:  copyjob.Counts{Succeeded: 3, Failed: 1, Skipped: 2},
		Elapsed: 45 * time.Second,
		Status:  copyjob.StatusCancelled,
	}
	text, _ := resultPanel(res)
	if !strings.Contains(text, "остановлено") {
		t.Errorf("cancelled result must say so, got %q", text)
	}
}

func TestStatsTextEmpty(t *testing.T) {
	t.Parallel()

	if got := statsText(stats.AdminStats{}); !strings.Contains(got, "пуста") {
		t.Errorf("empty stats text = %q", got)
	}
}

func TestPromptForCoversAwaitingStates(t *testing.T) {
	t.Parallel()

	states := []convo.State{
		convo.StateAwaitingPhone,
		convo.StateAwaitingCode,
		convo.StateAwaitingPassword,
		convo.StateAwaitingManualSession,
		convo.StateConfiguringSource,
		convo.StateConfiguringTarget,
		convo.StateConfiguringRangeStart,
		convo.StateConfiguringRangeEnd,
	}
	for _, s := range states {
		if promptFor(s) == "" {
			t.Errorf("promptFor(%v) is empty", s)
		}
	}
	if promptFor(convo.StateIdle) != "" {
		t.Error("idle state must have no prompt")
	}
}

package chatops_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/matthieugusmini/docker-chatops/internal/chatops"
)

func TestRenderList(t *testing.T) {
	t.Run("marks running and stopped containers", func(t *testing.T) {
		containers := []chatops.Container{
			{Name: "web", Status: "Up 2 hours", Image: "nginx:latest", Running: true},
			{Name: "db", Status: "Exited (0) 3 hours ago", Image: "postgres:14", Running: false},
		}

		page := chatops.RenderList(containers)

		if !strings.Contains(page.Text, "🟢 <code>web</code>") {
			t.Errorf("running container not marked with the running indicator:\n%s", page.Text)
		}
		if !strings.Contains(page.Text, "🔴 <code>db</code>") {
			t.Errorf("stopped container not marked with the stopped indicator:\n%s", page.Text)
		}

		// One action button per container plus the back row.
		if len(page.Keyboard) != 3 {
			t.Fatalf("keyboard rows = %d, want 3", len(page.Keyboard))
		}
		if got, want := page.Keyboard[0][0].Data, "container_web"; got != want {
			t.Errorf("first action button data = %q, want %q", got, want)
		}
		if !strings.HasPrefix(page.Keyboard[0][0].Label, "⏹️") {
			t.Errorf("running container button label = %q, want stop indicator prefix", page.Keyboard[0][0].Label)
		}
		if got, want := page.Keyboard[1][0].Data, "container_db"; got != want {
			t.Errorf("second action button data = %q, want %q", got, want)
		}
		if !strings.HasPrefix(page.Keyboard[1][0].Label, "▶️") {
			t.Errorf("stopped container button label = %q, want start indicator prefix", page.Keyboard[1][0].Label)
		}
	})

	t.Run("empty listing has no action buttons", func(t *testing.T) {
		page := chatops.RenderList(nil)

		if !strings.Contains(page.Text, "No containers found") {
			t.Errorf("missing empty-state message:\n%s", page.Text)
		}
		for _, row := range page.Keyboard {
			for _, btn := range row {
				if strings.HasPrefix(btn.Data, "container_") {
					t.Errorf("unexpected action button %q in empty listing", btn.Data)
				}
			}
		}
	})

	t.Run("escapes HTML in container fields", func(t *testing.T) {
		containers := []chatops.Container{
			{Name: "web", Status: "Up <1 minute>", Image: "nginx:latest", Running: true},
		}

		page := chatops.RenderList(containers)

		if strings.Contains(page.Text, "<1 minute>") {
			t.Errorf("status text not escaped:\n%s", page.Text)
		}
	})
}

func TestRenderContainer(t *testing.T) {
	t.Run("running container offers stop and restart", func(t *testing.T) {
		page := chatops.RenderContainer(chatops.Container{
			Name:    "web",
			Status:  "Up 2 hours",
			Image:   "nginx:latest",
			Running: true,
		})

		data := buttonData(page)
		for _, want := range []string{"action_stop_web", "action_restart_web", "action_logs_web", "list"} {
			if !data[want] {
				t.Errorf("missing button %q, got %v", want, data)
			}
		}
		if data["action_start_web"] {
			t.Error("running container must not offer a start button")
		}
	})

	t.Run("stopped container offers start", func(t *testing.T) {
		page := chatops.RenderContainer(chatops.Container{
			Name:   "db",
			Status: "Exited (0) 3 hours ago",
			Image:  "postgres:14",
		})

		data := buttonData(page)
		if !data["action_start_db"] {
			t.Errorf("missing start button, got %v", data)
		}
		if data["action_stop_db"] || data["action_restart_db"] {
			t.Error("stopped container must not offer stop or restart buttons")
		}
	})
}

func TestRenderLogs(t *testing.T) {
	const notice = "... (last 20 lines shown)"

	t.Run("output of exactly the limit passes through unchanged", func(t *testing.T) {
		logs := strings.Repeat("a", 3000)

		page := chatops.RenderLogs("web", logs)

		if !strings.Contains(page.Text, logs) {
			t.Error("log output was modified")
		}
		if strings.Contains(page.Text, notice) {
			t.Error("unexpected truncation notice")
		}
	})

	t.Run("oversized output keeps only the trailing characters", func(t *testing.T) {
		tail := strings.Repeat("a", 3000)
		logs := "b" + tail

		page := chatops.RenderLogs("web", logs)

		if !strings.Contains(page.Text, tail) {
			t.Error("trailing log output missing")
		}
		if strings.Contains(page.Text, "b"+tail) {
			t.Error("leading log output was not cut")
		}
		if !strings.Contains(page.Text, notice) {
			t.Error("missing truncation notice")
		}
	})

	t.Run("never cuts in the middle of a multi-byte rune", func(t *testing.T) {
		// 3002 bytes, so the byte-level cut would land inside the
		// first remaining rune.
		logs := strings.Repeat("日", 1000) + "ab"

		page := chatops.RenderLogs("web", logs)

		if !utf8.ValidString(page.Text) {
			t.Error("rendered text is not valid UTF-8")
		}
		if !strings.Contains(page.Text, notice) {
			t.Error("missing truncation notice")
		}
		if !strings.Contains(page.Text, "日日日") {
			t.Error("trailing log output missing")
		}
	})

	t.Run("escapes HTML in log output", func(t *testing.T) {
		page := chatops.RenderLogs("web", "<script>alert(1)</script>")

		if strings.Contains(page.Text, "<script>") {
			t.Errorf("log output not escaped:\n%s", page.Text)
		}
	})
}

func TestRenderStats(t *testing.T) {
	page := chatops.RenderStats(chatops.Stats{
		Running: 1,
		Total:   2,
		Entries: []chatops.StatsEntry{
			{Name: "web", CPU: "0.07%", Memory: "1.24%"},
		},
	})

	if !strings.Contains(page.Text, "1/2") {
		t.Errorf("missing running/total counts:\n%s", page.Text)
	}
	if !strings.Contains(page.Text, "CPU: 0.07%") {
		t.Errorf("missing CPU usage:\n%s", page.Text)
	}
	if !strings.Contains(page.Text, "Memory: 1.24%") {
		t.Errorf("missing memory usage:\n%s", page.Text)
	}
}

func TestRenderActionResult(t *testing.T) {
	testCases := []struct {
		action chatops.Action
		want   string
	}{
		{chatops.ActionStart, "started"},
		{chatops.ActionStop, "stopped"},
		{chatops.ActionRestart, "restarted"},
	}

	for _, tc := range testCases {
		t.Run(string(tc.action), func(t *testing.T) {
			page := chatops.RenderActionResult(tc.action, "web")

			if !strings.Contains(page.Text, "web") {
				t.Errorf("confirmation does not name the container:\n%s", page.Text)
			}
			if !strings.Contains(page.Text, tc.want) {
				t.Errorf("confirmation does not name the action %q:\n%s", tc.want, page.Text)
			}
		})
	}
}

func buttonData(page chatops.Page) map[string]bool {
	data := make(map[string]bool)
	for _, row := range page.Keyboard {
		for _, btn := range row {
			data[btn.Data] = true
		}
	}
	return data
}

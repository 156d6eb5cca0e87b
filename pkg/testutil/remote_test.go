package testutil

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/R3E-Network/orders_service/internal/app/domain/user"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestRemoteServesRegisteredEntities(t *testing.T) {
	r := NewRemote(t)
	u := user.Summary{ID: uuid.New(), DisplayName: "Grace"}
	r.AddUser(u)

	status, body := get(t, r.URL+UserPath(u.ID))
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if want := `"personName":"Grace"`; !strings.Contains(body, want) {
		t.Fatalf("body %s does not contain %s", body, want)
	}

	status, _ = get(t, r.URL+ProductPath(uuid.New()))
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if got := r.Calls(UserPath(u.ID)); got != 1 {
		t.Fatalf("expected 1 call, got %d", got)
	}
}

func TestRemoteReplyOverridesEntity(t *testing.T) {
	r := NewRemote(t)
	u := user.Summary{ID: uuid.New()}
	r.AddUser(u)
	r.Reply(UserPath(u.ID), http.StatusServiceUnavailable, "")

	status, _ := get(t, r.URL+UserPath(u.ID))
	if status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", status)
	}
}

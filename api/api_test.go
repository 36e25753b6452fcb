package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hoshinonyaruko/snake-classic/config"
	"github.com/hoshinonyaruko/snake-classic/sqlite"
	_ "github.com/mattn/go-sqlite3"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	dir, err := os.MkdirTemp("", "snake-classic-test")
	if err != nil {
		panic(err)
	}
	config.LoadConfig(filepath.Join(dir, "config.json"))
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func setupRouter(t *testing.T) (*gin.Engine, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	sqlite.InitializeDatabase(db)

	router := gin.New()
	router.GET("/new-game", NewGameHandler(db))
	router.GET("/update-direction", UpdateDirection(db))
	router.GET("/state", StateHandler(db))
	router.GET("/delete-map", DeleteMapHandler(db))
	router.GET("/highscores", HighScoresHandler(db))
	return router, db
}

func doGet(t *testing.T, router *gin.Engine, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestNewGameHandler(t *testing.T) {
	router, _ := setupRouter(t)

	// tick_interval给大一点 测试期间蛇不会自己动
	w := doGet(t, router, "/new-game?sessionid=g1&width=10&height=10&tick_interval=3600")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["status"] != "running" {
		t.Errorf("status = %v, want running", body["status"])
	}
	if body["session_id"] != "g1" {
		t.Errorf("session_id = %v, want g1", body["session_id"])
	}
	snakeObj := body["snake"].(map[string]interface{})
	if positions := snakeObj["positions"].([]interface{}); len(positions) != 2 {
		t.Errorf("initial snake length = %d, want 2", len(positions))
	}
}

func TestNewGameHandlerMissingSession(t *testing.T) {
	router, _ := setupRouter(t)
	if w := doGet(t, router, "/new-game"); w.Code != http.StatusBadRequest {
		t.Errorf("code = %d, want 400", w.Code)
	}
}

func TestUpdateDirection(t *testing.T) {
	router, _ := setupRouter(t)
	doGet(t, router, "/new-game?sessionid=g1&width=10&height=10&tick_interval=3600")

	// 合法方向 即使被核心静默忽略也算成功
	if w := doGet(t, router, "/update-direction?sessionid=g1&direction=up"); w.Code != http.StatusOK {
		t.Errorf("valid direction: code = %d, body = %s", w.Code, w.Body.String())
	}
	// 非法方向字符串是传输层错误
	if w := doGet(t, router, "/update-direction?sessionid=g1&direction=diagonal"); w.Code != http.StatusBadRequest {
		t.Errorf("invalid direction: code = %d, want 400", w.Code)
	}
	// 会话不存在
	if w := doGet(t, router, "/update-direction?sessionid=nope&direction=up"); w.Code != http.StatusNotFound {
		t.Errorf("missing session: code = %d, want 404", w.Code)
	}
	// 缺参数
	if w := doGet(t, router, "/update-direction?sessionid=g1"); w.Code != http.StatusBadRequest {
		t.Errorf("missing direction: code = %d, want 400", w.Code)
	}
}

func TestStateHandler(t *testing.T) {
	router, _ := setupRouter(t)
	doGet(t, router, "/new-game?sessionid=g1&width=10&height=10&tick_interval=3600")

	w := doGet(t, router, "/state?sessionid=g1")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["score"].(float64) != 0 {
		t.Errorf("score = %v, want 0", body["score"])
	}
	if body["status"] != "running" {
		t.Errorf("status = %v, want running", body["status"])
	}
	if _, ok := body["food"].(map[string]interface{}); !ok {
		t.Errorf("food missing from state: %s", w.Body.String())
	}

	if w := doGet(t, router, "/state?sessionid=nope"); w.Code != http.StatusNotFound {
		t.Errorf("missing session: code = %d, want 404", w.Code)
	}
}

func TestDeleteMapHandler(t *testing.T) {
	router, _ := setupRouter(t)
	doGet(t, router, "/new-game?sessionid=g1&width=10&height=10&tick_interval=3600")

	if w := doGet(t, router, "/delete-map?sessionid=g1"); w.Code != http.StatusOK {
		t.Fatalf("delete: code = %d, body = %s", w.Code, w.Body.String())
	}
	if w := doGet(t, router, "/state?sessionid=g1"); w.Code != http.StatusNotFound {
		t.Errorf("state after delete: code = %d, want 404", w.Code)
	}
}

func TestHighScoresHandler(t *testing.T) {
	router, db := setupRouter(t)
	for _, hs := range []struct {
		id    string
		score int
	}{{"a", 3}, {"b", 9}, {"c", 6}} {
		if err := sqlite.InsertHighScore(db, hs.id, hs.score); err != nil {
			t.Fatal(err)
		}
	}

	w := doGet(t, router, "/highscores?limit=2")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	scores := body["scores"].([]interface{})
	if len(scores) != 2 {
		t.Fatalf("got %d scores, want 2", len(scores))
	}
	first := scores[0].(map[string]interface{})
	if first["session_id"] != "b" || first["score"].(float64) != 9 {
		t.Errorf("top score = %v, want b/9", first)
	}
}

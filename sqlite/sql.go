package sqlite

import (
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"github.com/hoshinonyaruko/snake-classic/structs"
)

const createGamesTableSQL = `
CREATE TABLE IF NOT EXISTS Games (
    SessionID TEXT PRIMARY KEY,
    MapWidth INTEGER,
    MapHeight INTEGER,
    Score INTEGER,
    Status TEXT,
    SnakePositions TEXT,
    Direction TEXT,
    NextDirection TEXT,
    LastMove TEXT,
    FoodX INTEGER,
    FoodY INTEGER,
    Avatar TEXT,
    LastTick INTEGER,
    TickInterval INTEGER
);
`

const createHighScoresTableSQL = `
CREATE TABLE IF NOT EXISTS HighScores (
    ID INTEGER PRIMARY KEY AUTOINCREMENT,
    SessionID TEXT,
    Score INTEGER,
    AchievedAt INTEGER
);
`

const createHighScoresIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_highscore_score ON HighScores (Score DESC);
`

func executeSQL(db *sql.DB, sqlStatement string) {
	_, err := db.Exec(sqlStatement)
	if err != nil {
		log.Fatalf("Error executing SQL statement: %s\n%s", sqlStatement, err)
	}
}

func InitializeDatabase(db *sql.DB) {
	executeSQL(db, createGamesTableSQL)
	executeSQL(db, createHighScoresTableSQL)
	executeSQL(db, createHighScoresIndexSQL)
}

// SaveGame 把整局游戏写进数据库 蛇身序列化成JSON文本
func SaveGame(db *sql.DB, game *structs.Game) error {
	positionsData, err := json.Marshal(game.Snake.Positions)
	if err != nil {
		return err
	}

	// 开启事务
	tx, err := db.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO Games
        (SessionID, MapWidth, MapHeight, Score, Status, SnakePositions, Direction, NextDirection, LastMove, FoodX, FoodY, Avatar, LastTick, TickInterval)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		game.SessionID, game.Width, game.Height, game.Score, string(game.Status),
		string(positionsData), string(game.Snake.Direction), string(game.Snake.NextDirection), string(game.Snake.LastMove),
		game.Food.X, game.Food.Y, game.Avatar, game.LastTick, game.TickInterval)
	if err != nil {
		tx.Rollback()
		return err
	}

	// 提交事务
	return tx.Commit()
}

// LoadGame 按会话ID读出一局游戏 没有记录时返回sql.ErrNoRows
func LoadGame(db *sql.DB, sessionID string) (*structs.Game, error) {
	var game structs.Game
	var positionsData, status, direction, nextDirection, lastMove string

	err := db.QueryRow(`SELECT SessionID, MapWidth, MapHeight, Score, Status, SnakePositions, Direction, NextDirection, LastMove, FoodX, FoodY, Avatar, LastTick, TickInterval
        FROM Games WHERE SessionID = ?`, sessionID).Scan(
		&game.SessionID, &game.Width, &game.Height, &game.Score, &status,
		&positionsData, &direction, &nextDirection, &lastMove,
		&game.Food.X, &game.Food.Y, &game.Avatar, &game.LastTick, &game.TickInterval,
	)
	if err != nil {
		return nil, err
	}

	// 反序列化蛇身位置
	if err := json.Unmarshal([]byte(positionsData), &game.Snake.Positions); err != nil {
		return nil, err
	}
	game.Status = structs.GameStatus(status)
	game.Snake.Direction = structs.Direction(direction)
	game.Snake.NextDirection = structs.Direction(nextDirection)
	game.Snake.LastMove = structs.Direction(lastMove)

	return &game, nil
}

// DeleteGame 删除一局游戏
func DeleteGame(db *sql.DB, sessionID string) error {
	_, err := db.Exec("DELETE FROM Games WHERE SessionID = ?", sessionID)
	return err
}

// InsertHighScore 终局时记一笔成绩
func InsertHighScore(db *sql.DB, sessionID string, score int) error {
	_, err := db.Exec("INSERT INTO HighScores (SessionID, Score, AchievedAt) VALUES (?, ?, ?)",
		sessionID, score, time.Now().Unix())
	return err
}

// TopHighScores 取分数最高的前limit条
func TopHighScores(db *sql.DB, limit int) ([]structs.HighScore, error) {
	rows, err := db.Query("SELECT SessionID, Score, AchievedAt FROM HighScores ORDER BY Score DESC, AchievedAt ASC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []structs.HighScore
	for rows.Next() {
		var hs structs.HighScore
		if err := rows.Scan(&hs.SessionID, &hs.Score, &hs.AchievedAt); err != nil {
			return nil, err
		}
		scores = append(scores, hs)
	}
	return scores, rows.Err()
}

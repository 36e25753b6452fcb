// 关于蛇的更新
package snake

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/hoshinonyaruko/snake-classic/structs"
)

const (
	DefaultWidth        = 20 // 默认地图宽度
	DefaultHeight       = 20 // 默认地图高度
	DefaultTickInterval = 1  // 默认刷新间隔 单位秒
)

// 四个方向对应的反方向
var opposites = map[structs.Direction]structs.Direction{
	structs.DirUp:    structs.DirDown,
	structs.DirDown:  structs.DirUp,
	structs.DirLeft:  structs.DirRight,
	structs.DirRight: structs.DirLeft,
}

// ValidDirection 检查方向字符串是否合法
func ValidDirection(d structs.Direction) bool {
	_, ok := opposites[d]
	return ok
}

// Delta 返回方向对应的单位向量
func Delta(d structs.Direction) (int, int) {
	switch d {
	case structs.DirUp:
		return 0, -1
	case structs.DirDown:
		return 0, 1
	case structs.DirLeft:
		return -1, 0
	case structs.DirRight:
		return 1, 0
	}
	return 0, 0
}

// NewGame 创建一局新游戏 蛇出生在地图内圈 朝向随机
func NewGame(sessionID string, width, height, tickInterval int, rng *rand.Rand) *structs.Game {
	if width < 4 {
		width = DefaultWidth
	}
	if height < 4 {
		height = DefaultHeight
	}
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}

	game := &structs.Game{
		SessionID:    sessionID,
		Width:        width,
		Height:       height,
		Status:       structs.StatusRunning,
		LastTick:     time.Now().Unix(),
		TickInterval: tickInterval,
	}
	resetSnake(game, rng)
	game.Food = randomFreePosition(game, rng)
	return game
}

// Reset 在同一个会话上重新开局 保留地图尺寸和刷新间隔
func Reset(game *structs.Game, rng *rand.Rand) {
	game.Score = 0
	game.Status = structs.StatusRunning
	game.LastTick = time.Now().Unix()
	resetSnake(game, rng)
	game.Food = randomFreePosition(game, rng)
}

// resetSnake 随机生成初始蛇 头在内圈 尾巴拖在前进方向的反面
func resetSnake(game *structs.Game, rng *rand.Rand) {
	head := structs.Position{
		X: 1 + rng.Intn(game.Width-2),
		Y: 1 + rng.Intn(game.Height-2),
	}

	// 随机选择一个方向
	directions := []structs.Direction{structs.DirUp, structs.DirDown, structs.DirLeft, structs.DirRight}
	dir := directions[rng.Intn(len(directions))]

	dx, dy := Delta(dir)
	tail := structs.Position{X: head.X - dx, Y: head.Y - dy}

	game.Snake = structs.Snake{
		Positions: []structs.Position{head, tail},
		Direction: dir,
		LastMove:  dir,
	}
}

// SetDirection 请求转向 原地掉头的请求直接忽略 其余缓冲到下一tick生效
func SetDirection(game *structs.Game, d structs.Direction) {
	if game.Status != structs.StatusRunning {
		return
	}
	if !ValidDirection(d) {
		return
	}
	// 和上一tick实际走向相反 会当场咬到脖子 忽略
	if d == opposites[game.Snake.LastMove] {
		return
	}
	game.Snake.NextDirection = d
}

// Tick 推进一步 移动 吃食物 碰撞判定都在这里
func Tick(game *structs.Game, rng *rand.Rand) {
	if game.Status != structs.StatusRunning {
		return
	}

	s := &game.Snake
	if len(s.Positions) == 0 {
		return
	}
	// 有缓冲的转向就先生效
	if s.NextDirection != "" {
		s.Direction = s.NextDirection
		s.NextDirection = ""
	}

	head := s.Positions[0]
	dx, dy := Delta(s.Direction)
	newHead := structs.Position{X: head.X + dx, Y: head.Y + dy}
	s.LastMove = s.Direction

	// 出界判定 撞墙直接结束
	if newHead.X < 0 || newHead.X >= game.Width || newHead.Y < 0 || newHead.Y >= game.Height {
		game.Status = structs.StatusOver
		return
	}

	// 咬到自己判定 尾巴格也算
	for _, pos := range s.Positions {
		if pos == newHead {
			game.Status = structs.StatusOver
			return
		}
	}

	if newHead == game.Food {
		// 吃到食物 头接上去 尾巴不动 等于变长一格
		s.Positions = append([]structs.Position{newHead}, s.Positions...)
		game.Score++
		// 蛇填满整张地图 胜利
		if len(s.Positions) == game.Width*game.Height {
			game.Status = structs.StatusWon
			return
		}
		game.Food = randomFreePosition(game, rng)
	} else {
		// 普通移动 头接上去 丢掉尾巴
		s.Positions = append([]structs.Position{newHead}, s.Positions[:len(s.Positions)-1]...)
	}
}

// UpdateGameIfNeeded 按经过的时间补跑tick 返回实际执行的tick数
func UpdateGameIfNeeded(game *structs.Game, rng *rand.Rand) int {
	currentTime := time.Now().Unix()
	elapsed := currentTime - game.LastTick

	// 计算应该执行的移动次数
	moveInterval := int64(game.TickInterval)
	if moveInterval <= 0 {
		moveInterval = DefaultTickInterval
	}
	moveCount := elapsed / moveInterval
	if moveCount <= 0 {
		return 0
	}
	fmt.Printf("elapsed[%v] moveCount[%v] session[%v]\n", elapsed, moveCount, game.SessionID)

	for i := int64(0); i < moveCount && game.Status == structs.StatusRunning; i++ {
		Tick(game, rng)
	}

	// 刷新新的时间
	game.LastTick = currentTime
	return int(moveCount)
}

// randomFreePosition 在蛇身之外均匀随机挑一个空格子
func randomFreePosition(game *structs.Game, rng *rand.Rand) structs.Position {
	occupied := make(map[structs.Position]bool, len(game.Snake.Positions))
	for _, pos := range game.Snake.Positions {
		occupied[pos] = true
	}

	free := make([]structs.Position, 0, game.Width*game.Height-len(occupied))
	for x := 0; x < game.Width; x++ {
		for y := 0; y < game.Height; y++ {
			pos := structs.Position{X: x, Y: y}
			if !occupied[pos] {
				free = append(free, pos)
			}
		}
	}
	if len(free) == 0 {
		// 没有空格子 地图已被填满 食物位置保持原样
		return game.Food
	}
	return free[rng.Intn(len(free))]
}

package structs

// Direction 蛇的移动方向
type Direction string

const (
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

// GameStatus 一局游戏的状态
type GameStatus string

const (
	StatusRunning GameStatus = "running" // 进行中
	StatusOver    GameStatus = "over"    // 撞墙或咬到自己 终止态
	StatusWon     GameStatus = "won"     // 蛇填满整张地图 终止态
)

// Position 描述游戏地图上的一个坐标位置。
type Position struct {
	X int `json:"x"` // X坐标
	Y int `json:"y"` // Y坐标
}

// Snake 描述一条贪食蛇的信息 头在Positions[0]。
type Snake struct {
	Positions     []Position `json:"positions"`      // 蛇身上的每个格子的位置
	Direction     Direction  `json:"direction"`      // 当前移动方向
	NextDirection Direction  `json:"next_direction"` // 缓冲的转向 下一tick生效 空表示无
	LastMove      Direction  `json:"last_move"`      // 上一tick实际走的方向 用于判定原地掉头
}

// Game 描述一个游戏会话 包括会话ID和地图状态。
type Game struct {
	SessionID    string     `json:"session_id"`    // 会话标识
	Snake        Snake      `json:"snake"`         // 蛇的状态
	Food         Position   `json:"food"`          // 食物位置 单个
	Score        int        `json:"score"`         // 得分 每吃一个食物+1
	Status       GameStatus `json:"status"`        // 游戏状态
	Width        int        `json:"width"`         // 地图宽度
	Height       int        `json:"height"`        // 地图高度
	Avatar       string     `json:"avatar"`        // 玩家头像标识 渲染用 可为空
	LastTick     int64      `json:"last_tick"`     // 最后刷新时间 时间戳
	TickInterval int        `json:"tick_interval"` // 刷新间隔 单位秒
}

// HighScore 排行榜里的一条记录。
type HighScore struct {
	SessionID  string `json:"session_id"`
	Score      int    `json:"score"`
	AchievedAt int64  `json:"achieved_at"`
}

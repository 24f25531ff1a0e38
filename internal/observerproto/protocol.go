package observerproto

// Version is the observer protocol version.
const Version = "0.1"

// Client -> Server. First message on the observer WS connection; re-sending it moves
// the window.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// Center is a tile coordinate. Absent means the middle of the world.
	Center      *[2]int `json:"center,omitempty"`
	ChunkRadius int     `json:"chunk_radius"`
	MaxChunks   int     `json:"max_chunks"`

	Placements bool `json:"placements"`
}

// HTTP response for GET /observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string         `json:"protocol_version"`
	RunID           string         `json:"run_id"`
	WorldParams     WorldParams    `json:"world_params"`
	TilePalette     []PaletteEntry `json:"tile_palette"`
}

type WorldParams struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Factor     int    `json:"factor"`
	TileWidth  int    `json:"tile_width"`
	TileHeight int    `json:"tile_height"`
	ChunkSize  [2]int `json:"chunk_size"`
	Seed       int64  `json:"seed"`
	Digest     string `json:"digest"`
	Strategy   string `json:"strategy"`
}

type PaletteEntry struct {
	ID    uint16 `json:"id"`
	Biome string `json:"biome"`
	Color string `json:"color"`
}

// Server -> Client. Full 16x16 tile block for a chunk; cells outside the world are 0.
type ChunkTilesMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	CX              int    `json:"cx"`
	CY              int    `json:"cy"`
	Encoding        string `json:"encoding"`
	Data            string `json:"data"`
}

// Server -> Client. Placements inside one chunk, raster order.
type PlacementsMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	CX              int             `json:"cx"`
	CY              int             `json:"cy"`
	Placements      []PlacementInfo `json:"placements"`
}

type PlacementInfo struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Type     string `json:"type"`
	Variant  string `json:"variant"`
	Resource string `json:"resource,omitempty"`
	Amount   int    `json:"amount,omitempty"`
}

// Server -> Client. Evict a chunk from the client cache.
type ChunkEvictMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	CX              int    `json:"cx"`
	CY              int    `json:"cy"`
}

// Server -> Client. Sent after every subscribe once its window has been delivered.
type SyncedMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Chunks          int    `json:"chunks"`
	Placements      int    `json:"placements"`
}

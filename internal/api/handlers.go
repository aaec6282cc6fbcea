package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/voxel-engine/internal/observability"
	"github.com/annel0/voxel-engine/internal/render"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ChunkSummary - краткая информация о чанке
type ChunkSummary struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Z     int `json:"z"`
	Quads int `json:"quads"`
	Solid int `json:"solid"`
}

// ChunkDetails - подробная информация о чанке
type ChunkDetails struct {
	ChunkSummary
	Vertices    int    `json:"vertices"`
	Indices     int    `json:"indices"`
	WorldOrigin [3]int `json:"world_origin"`
}

// VoxelInfo - воксель по мировой координате
type VoxelInfo struct {
	World [3]int `json:"world"`
	Chunk [3]int `json:"chunk"`
	Local [3]int `json:"local"`
	Shape string `json:"shape"`
	Bits  uint8  `json:"bits"`
	Solid bool   `json:"solid"`
}

func notGenerated(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, GenericResponse{
		Success: false,
		Message: "Мир еще не сгенерирован",
	})
}

// parseCoords разбирает параметры :x/:y/:z
func parseCoords(c *gin.Context) (vec.Vec3, bool) {
	var v [3]int
	for i, name := range []string{"x", "y", "z"} {
		n, err := strconv.Atoi(c.Param(name))
		if err != nil {
			c.JSON(http.StatusBadRequest, GenericResponse{
				Success: false,
				Message: "Координата " + name + " должна быть целым числом",
			})
			return vec.Vec3{}, false
		}
		v[i] = n
	}
	return vec.New(v[0], v[1], v[2]), true
}

// handleHealth проверка состояния сервера
func (s *Server) handleHealth(c *gin.Context) {
	_, generated := s.generator.LastStats()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"generated": generated,
		"time":      time.Now().Unix(),
	})
}

// handleStats возвращает статистику последней генерации и процесса
func (s *Server) handleStats(c *gin.Context) {
	stats, ok := s.generator.LastStats()
	if !ok {
		notGenerated(c)
		return
	}

	data := gin.H{
		"generation": stats,
		"process":    s.process.Snapshot(),
	}
	if s.events != nil {
		data["events"] = s.events.Metrics()
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    data,
	})
}

// handleChunks возвращает список чанков в порядке координат
func (s *Server) handleChunks(c *gin.Context) {
	if _, ok := s.generator.LastStats(); !ok {
		notGenerated(c)
		return
	}

	chunks := s.generator.Scene().Chunks()
	list := make([]ChunkSummary, 0, len(chunks))
	for _, ch := range chunks {
		list = append(list, summarize(ch))
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Список чанков",
		Data: gin.H{
			"chunks": list,
			"total":  len(list),
		},
	})
}

func summarize(ch *world.Chunk) ChunkSummary {
	return ChunkSummary{
		X:     ch.Position.X,
		Y:     ch.Position.Y,
		Z:     ch.Position.Z,
		Quads: ch.Mesh.QuadCount(),
		Solid: ch.SolidCount(),
	}
}

// handleChunk возвращает информацию о чанке по координатам сетки чанков
func (s *Server) handleChunk(c *gin.Context) {
	coord, ok := parseCoords(c)
	if !ok {
		return
	}
	trace.SpanFromContext(c.Request.Context()).SetAttributes(
		observability.ChunkAttrs(coord.X, coord.Y, coord.Z)...)

	ch, found := s.generator.Scene().Chunk(coord)
	if !found {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Чанк не найден",
		})
		return
	}

	origin := ch.WorldOrigin()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Чанк найден",
		Data: ChunkDetails{
			ChunkSummary: summarize(ch),
			Vertices:     len(ch.Mesh.Vertices),
			Indices:      len(ch.Mesh.Indices),
			WorldOrigin:  [3]int{origin.X, origin.Y, origin.Z},
		},
	})
}

// handleVoxel возвращает воксель по мировой координате
func (s *Server) handleVoxel(c *gin.Context) {
	pos, ok := parseCoords(c)
	if !ok {
		return
	}

	d, found := s.generator.Scene().VoxelAt(pos)
	if !found {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Чанк для координаты не создан",
		})
		return
	}

	chunk := pos.ToChunkCoords(world.ChunkSize)
	local := pos.LocalInChunk(world.ChunkSize).ToVec3()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Воксель найден",
		Data: VoxelInfo{
			World: [3]int{pos.X, pos.Y, pos.Z},
			Chunk: [3]int{chunk.X, chunk.Y, chunk.Z},
			Local: [3]int{local.X, local.Y, local.Z},
			Shape: d.Shape.String(),
			Bits:  d.Shape.Bits(),
			Solid: d.IsSolid(),
		},
	})
}

// handleMesh отдает объединенный меш в формате дампа (zstd)
func (s *Server) handleMesh(c *gin.Context) {
	m, ok := s.generator.LastMesh()
	if !ok {
		notGenerated(c)
		return
	}
	if err := render.CheckDumpSize(len(m.Vertices), len(m.Indices)); err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, GenericResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	c.Header("Content-Type", "application/octet-stream")
	c.Header("Content-Disposition", `attachment; filename="world.vxm"`)
	c.Status(http.StatusOK)
	if err := render.WriteDump(c.Writer, m.Vertices, m.Indices); err != nil {
		_ = c.Error(err)
	}
}

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/annel0/voxel-engine/internal/vec"
)

// parseSize разбирает размер мира в формате "x,y,z"
func parseSize(s string) (vec.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return vec.Vec3{}, fmt.Errorf("ожидается x,y,z, получено %q", s)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return vec.Vec3{}, fmt.Errorf("компонента %d: %w", i, err)
		}
		if n <= 0 {
			return vec.Vec3{}, fmt.Errorf("компонента %d должна быть положительной, получено %d", i, n)
		}
		v[i] = n
	}
	return vec.New(v[0], v[1], v[2]), nil
}

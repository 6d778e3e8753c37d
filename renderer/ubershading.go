package renderer

import (
	"sort"

	"github.com/InVisionApp/astral-renderer-sub000/config"
	"github.com/InVisionApp/astral-renderer-sub000/internal/cmdlist"
)

// uberShadingKey is the Renderer's backend.UberShadingKey implementation:
// it accumulates the distinct shaders a batch of commands uses and derives
// a stand-in "über-shader" handle plus a cache cookie the backend may use
// to skip recompiling an über-shader program it has already built for the
// same shader set.
type uberShadingKey struct {
	clipKind config.ClipWindowStrategy
	method config.UberShaderMethod

	seen map[cmdlist.ShaderHandle]bool
	order []cmdlist.ShaderHandle

	final cmdlist.ShaderHandle
	cookie uint64
}

func newUberShadingKey() *uberShadingKey {
	return &uberShadingKey{final: cmdlist.InvalidShaderHandle}
}

func (k *uberShadingKey) BeginAccumulate(clipKind config.ClipWindowStrategy, method config.UberShaderMethod) {
	k.clipKind = clipKind
	k.method = method
	k.seen = make(map[cmdlist.ShaderHandle]bool)
	k.order = k.order[:0]
	k.final = cmdlist.InvalidShaderHandle
	k.cookie = 0
}

func (k *uberShadingKey) AccumulateShader(shader cmdlist.ShaderHandle) {
	if k.method == config.UberShaderNone || !shader.IsValid() || k.seen[shader] {
		return
	}
	k.seen[shader] = true
	k.order = append(k.order, shader)
}

// EndAccumulate derives the final über-shader handle (the lowest-valued
// accumulated shader stands in as the fold target) and a cookie combining
// the clip strategy, the accumulation method and every accumulated shader,
// so two batches folding the same shader set under the same strategy
// collide to the same cookie.
func (k *uberShadingKey) EndAccumulate() {
	if len(k.order) == 0 {
		k.final = cmdlist.InvalidShaderHandle
		k.cookie = 0
		return
	}
	sorted := append([]cmdlist.ShaderHandle(nil), k.order...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	const fnvOffset = uint64(14695981039346656037)
	const fnvPrime = uint64(1099511628211)
	cookie := fnvOffset
	cookie = (cookie ^ uint64(k.clipKind)) * fnvPrime
	cookie = (cookie ^ uint64(k.method)) * fnvPrime
	for _, s := range sorted {
		cookie = (cookie ^ uint64(s)) * fnvPrime
	}

	k.final = sorted[0]
	k.cookie = cookie
}

func (k *uberShadingKey) UberShaderOfAll() cmdlist.ShaderHandle { return k.final }
func (k *uberShadingKey) Cookie() uint64 { return k.cookie }

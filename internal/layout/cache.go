package layout

import "ilgraph/internal/types"

type tagInfo struct {
	Tag    types.Type
	Offset uint32
}

type cache struct {
	byEnum map[*Enum]tagInfo
}

func newCache() *cache {
	return &cache{byEnum: make(map[*Enum]tagInfo, 32)}
}

func (c *cache) get(en *Enum) (tagInfo, bool) {
	if c == nil {
		return tagInfo{}, false
	}
	l, ok := c.byEnum[en]
	return l, ok
}

func (c *cache) put(en *Enum, info *tagInfo) {
	if c == nil {
		return
	}
	if info == nil {
		delete(c.byEnum, en)
		return
	}
	c.byEnum[en] = *info
}

// Package feed 实现防重复的随机轮转选择器以及预选缓冲区。
//
// rotation 保存所有 Profile，每个恰好一次，只通过「弹出队首、压入队尾」改变顺序；
// lookahead 保存已经选出但尚未展示的 Profile，长度在每次消费后恢复到
// batchSize * LookaheadFactor。两个队列共享同一组 *Profile。
//
// Source 没有内部同步，调用方必须串行化对同一个实例的调用。
package feed

import (
	"github.com/gammazero/deque"
)

// Rand 是 Source 消费的随机性。common/random.Source 实现了它。
type Rand interface {
	// Chance 以概率 p 返回 true。
	Chance(p float64) bool
	// Shuffle 对 n 个元素做均匀随机排列。
	Shuffle(n int, swap func(i, j int))
}

type Source struct {
	rng       Rand
	rotation  deque.Deque[*Profile]
	lookahead deque.Deque[*Profile]
	batchSize int
}

// Tick 是一次推进的结果。
type Tick struct {
	// Current 是本批需要展示的 Profile，按先进先出顺序。
	Current []*Profile
	// Preload 是本次补充进缓冲区的 Profile，宿主应提前加载它们的头像。
	Preload []*Profile
}

// New 打乱 cfg.People 作为初始轮转顺序，并预先填满缓冲区。
func New(cfg Config, rng Rand) (*Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	people := make([]*Profile, len(cfg.People))
	for i := range cfg.People {
		p := cfg.People[i]
		people[i] = &p
	}
	rng.Shuffle(len(people), func(i, j int) {
		people[i], people[j] = people[j], people[i]
	})

	s := &Source{rng: rng, batchSize: cfg.BatchSize}
	for _, p := range people {
		s.rotation.PushBack(p)
	}
	s.fill()
	return s, nil
}

// BatchSize 返回每批的数量。
func (s *Source) BatchSize() int {
	return s.batchSize
}

// pickOne 不断把队首移到队尾，每移动一次以 AcceptProbability 接受刚移动的元素。
// 每一步都消耗一次抽样；只有一个元素时无论抽样结果如何都返回它。
func (s *Source) pickOne() *Profile {
	for {
		p := s.rotation.PopFront()
		s.rotation.PushBack(p)
		accepted := s.rng.Chance(AcceptProbability)
		if accepted || s.rotation.Len() == 1 {
			return p
		}
	}
}

// fill 补充缓冲区直到达到最小长度，返回新加入的 Profile。
func (s *Source) fill() []*Profile {
	target := s.batchSize * LookaheadFactor
	var added []*Profile
	if n := target - s.lookahead.Len(); n > 0 {
		added = make([]*Profile, 0, n)
	}
	for s.lookahead.Len() < target {
		p := s.pickOne()
		s.lookahead.PushBack(p)
		added = append(added, p)
	}
	return added
}

// Tick 取出下一批（缓冲区不足时取出剩余的全部），然后补充缓冲区。
func (s *Source) Tick() Tick {
	n := min(s.batchSize, s.lookahead.Len())
	current := make([]*Profile, 0, n)
	for range n {
		current = append(current, s.lookahead.PopFront())
	}
	return Tick{Current: current, Preload: s.fill()}
}

// Lookahead 返回缓冲区的快照，按出队顺序。
func (s *Source) Lookahead() []*Profile {
	return snapshot(&s.lookahead)
}

// Rotation 返回轮转队列的快照，队首在前。
func (s *Source) Rotation() []*Profile {
	return snapshot(&s.rotation)
}

func snapshot(q *deque.Deque[*Profile]) []*Profile {
	out := make([]*Profile, q.Len())
	for i := range out {
		out[i] = q.At(i)
	}
	return out
}

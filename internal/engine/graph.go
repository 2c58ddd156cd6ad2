package engine

// depGraph — направленный граф зависимостей на индексах шагов.
//
// Рёбра идут от зависимости к зависимому (producer → consumer) и
// собираются из двух источников: явных depends_on и неявных ссылок
// в значениях входов. Оба источника дедуплицируются в одно множество рёбер.
type depGraph struct {
	n     int
	succ  [][]int
	edges map[[2]int]struct{}
}

// newDepGraph создаёт пустой граф на n узлах.
func newDepGraph(n int) *depGraph {
	return &depGraph{
		n:     n,
		succ:  make([][]int, n),
		edges: make(map[[2]int]struct{}),
	}
}

// addEdge добавляет ребро from → to. Дубликаты игнорируются,
// чтобы не завышать inDegree при топологической сортировке.
func (g *depGraph) addEdge(from, to int) {
	key := [2]int{from, to}
	if _, ok := g.edges[key]; ok {
		return
	}
	g.edges[key] = struct{}{}
	g.succ[from] = append(g.succ[from], to)
}

// topoSort выполняет топологическую сортировку алгоритмом Кана.
//
// Очередь FIFO засевается узлами с нулевым inDegree в порядке объявления
// шагов; узлы, достигшие нуля, также встают в очередь в порядке объявления
// среди одновременно освободившихся. Это единственный детерминированный
// tie-break: независимые шаги исполняются в порядке объявления в плане.
//
// Возвращает порядок и список узлов, оставшихся в цикле (пуст, если
// граф ацикличен).
func (g *depGraph) topoSort() (order []int, cyclic []int) {
	inDegree := make([]int, g.n)
	for from := range g.succ {
		for _, to := range g.succ[from] {
			inDegree[to]++
		}
	}

	queue := make([]int, 0, g.n)
	for i := 0; i < g.n; i++ {
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order = make([]int, 0, g.n)
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		order = append(order, u)

		// Списки наследников наполняются при сканировании шагов по
		// возрастанию индекса, поэтому обход сохраняет порядок объявления.
		for _, v := range g.succ[u] {
			inDegree[v]--
			if inDegree[v] == 0 {
				queue = append(queue, v)
			}
		}
	}

	if len(order) == g.n {
		return order, nil
	}

	for i := 0; i < g.n; i++ {
		if inDegree[i] > 0 {
			cyclic = append(cyclic, i)
		}
	}
	return order, cyclic
}

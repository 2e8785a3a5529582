package domain

// ExportConversation представляет один объект разговора из структурированного экспорта.
// Узлы хранятся в порядке их появления в поле mapping исходного файла.
type ExportConversation struct {
	Title string
	Nodes []ExportNode
}

// ExportNode представляет узел дерева разговора.
type ExportNode struct {
	ID      string
	Message *ExportMessage
}

// ExportMessage представляет сообщение внутри узла.
type ExportMessage struct {
	AuthorRole string
	Parts      []string
	CreateTime *float64
}

// InputKind определяет формат входных данных, выбранный детектором.
type InputKind int

const (
	InputFreeform InputKind = iota
	InputStructured
)

func (k InputKind) String() string {
	if k == InputStructured {
		return "structured"
	}
	return "freeform"
}

// Input — результат определения формата: либо набор разговоров,
// либо строки произвольного текста. Заполнен только один из вариантов.
type Input struct {
	Kind          InputKind
	Conversations []ExportConversation
	Lines         []string
}

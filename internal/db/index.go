package db

// IndexFieldType enumerates FT schema field types.
type IndexFieldType string

const (
	IndexFieldText    IndexFieldType = "TEXT"
	IndexFieldTag     IndexFieldType = "TAG"
	IndexFieldNumeric IndexFieldType = "NUMERIC"
	IndexFieldVector  IndexFieldType = "VECTOR"
)

// VectorDistance enumerates supported distance metrics.
type VectorDistance string

const (
	DistanceCosine VectorDistance = "COSINE"
	DistanceL2     VectorDistance = "L2"
	DistanceIP     VectorDistance = "IP"
)

// IndexField is a single FT.CREATE schema entry.
type IndexField struct {
	Name              string
	Type              IndexFieldType
	VectorDim         int
	VectorDistance    VectorDistance
	VectorM           int
	VectorEFConstruct int
}

// IndexDefinition describes an FT index over hash keys with a prefix.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

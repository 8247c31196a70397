package port

type Metrics interface {
	CartChanged(op string)
	OrderPlaced(method string)
	OrderCancelled()
	CorruptRecord(kind string)
}

type NopMetrics struct{}

func (NopMetrics) CartChanged(string)   {}
func (NopMetrics) OrderPlaced(string)   {}
func (NopMetrics) OrderCancelled()      {}
func (NopMetrics) CorruptRecord(string) {}

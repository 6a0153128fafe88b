package pack

// FileType is the constructor contract a typed file must satisfy to be
// loaded via GetTypedFile: a pointer to it can unmarshal itself from the raw
// bytes GetFileContents returns. excel.Page implements this.
type FileType[T any] interface {
	*T
	UnmarshalSqPack(data []byte) error
}

// GetTypedFile loads path's contents and unmarshals them into a fresh *T via
// T's FileType contract. This is a free function rather than a method
// because Go methods cannot carry their own type parameters.
func GetTypedFile[T any, PT FileType[T]](p *Pack, path string) (*T, error) {
	data, err := p.GetFileContents(path)
	if err != nil {
		return nil, err
	}
	var t T
	pt := PT(&t)
	if err := pt.UnmarshalSqPack(data); err != nil {
		return nil, err
	}
	return &t, nil
}

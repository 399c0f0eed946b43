package asm

import "fmt"

// ObjectHeaders describes the header words of boxed constants: the type tag
// and the dispatch table label of each built-in class.
type ObjectHeaders struct {
	IntTag, BoolTag, StrTag                int32
	IntDispatch, BoolDispatch, StrDispatch string
}

// HeaderWords is the number of words before the first attribute of an object.
const HeaderWords = 3

// ConstantPool hands out one label per distinct constant. False and True are
// always present, in that order, so boxing a bool can index from the label of
// False.
type ConstantPool struct {
	nextID    int
	falseLbl  string
	trueLbl   string
	strLabels map[string]string
	strOrder  []string
	intLabels map[int32]string
	intOrder  []int32
}

func NewConstantPool() *ConstantPool {
	pool := &ConstantPool{strLabels: map[string]string{}, intLabels: map[int32]string{}}
	pool.falseLbl = pool.fresh()
	pool.trueLbl = pool.fresh()
	return pool
}

func (pool *ConstantPool) fresh() string {
	label := fmt.Sprintf("const_%d", pool.nextID)
	pool.nextID++
	return label
}

func (pool *ConstantPool) BoolConstant(value bool) string {
	if value {
		return pool.trueLbl
	}
	return pool.falseLbl
}

func (pool *ConstantPool) StrConstant(value string) string {
	if label, ok := pool.strLabels[value]; ok {
		return label
	}
	label := pool.fresh()
	pool.strLabels[value] = label
	pool.strOrder = append(pool.strOrder, value)
	return label
}

func (pool *ConstantPool) IntConstant(value int32) string {
	if label, ok := pool.intLabels[value]; ok {
		return label
	}
	label := pool.fresh()
	pool.intLabels[value] = label
	pool.intOrder = append(pool.intOrder, value)
	return label
}

// Emit writes every constant as a boxed object into the data section.
func (pool *ConstantPool) Emit(b *Backend, headers ObjectHeaders) {
	pool.emitScalar(b, pool.falseLbl, headers.BoolTag, headers.BoolDispatch, 0, "False")
	pool.emitScalar(b, pool.trueLbl, headers.BoolTag, headers.BoolDispatch, 1, "True")
	for _, value := range pool.intOrder {
		pool.emitScalar(b, pool.intLabels[value], headers.IntTag, headers.IntDispatch, value, fmt.Sprintf("int %d", value))
	}
	for _, value := range pool.strOrder {
		b.EmitAlign(2)
		b.EmitGlobalLabel(pool.strLabels[value])
		b.EmitWordLiteral(headers.StrTag, "type tag for str")
		b.EmitWordLiteral(int32(StrSizeWords(len(value))), "object size")
		b.EmitWordAddress(headers.StrDispatch, "pointer to dispatch table")
		b.EmitWordLiteral(int32(len(value)), "string length")
		b.EmitString(value, "string value")
	}
}

func (pool *ConstantPool) emitScalar(b *Backend, label string, tag int32, dispatch string, value int32, comment string) {
	b.EmitAlign(2)
	b.EmitGlobalLabel(label)
	b.EmitWordLiteral(tag, "type tag")
	b.EmitWordLiteral(HeaderWords+1, "object size")
	b.EmitWordAddress(dispatch, "pointer to dispatch table")
	b.EmitWordLiteral(value, comment)
}

// StrSizeWords is the size in words of a str object holding n characters and
// the terminating NUL.
func StrSizeWords(n int) int {
	return HeaderWords + 1 + (n+WordSize)/WordSize
}

package classifier

import "testing"

func BenchmarkClassify(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Classify("졸업하려면 전공 학점을 몇 학점 이수해야 하나요?")
	}
}

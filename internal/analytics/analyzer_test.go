package analytics_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/l33tquant/ta-statistics/internal/analytics"
	"github.com/l33tquant/ta-statistics/internal/model"
)

var _ = Describe("Analyzer", func() {
	var (
		analyzer *analytics.Analyzer
		logs     *observer.ObservedLogs
	)

	BeforeEach(func() {
		var core zapcore.Core
		core, logs = observer.New(zap.WarnLevel)
		analyzer = analytics.NewAnalyzer(5, 1.5, zap.New(core))
	})

	feed := func(cpu ...float64) analytics.Snapshot {
		var res analytics.Snapshot
		for i, v := range cpu {
			res = analyzer.Process(model.Sample{DeviceID: "node-1", CPU: v, RPS: 100, Timestamp: int64(1000 + i)})
		}
		return res
	}

	Context("before the window is full", func() {
		It("omits every statistic", func() {
			res := feed(10, 20, 30)

			Expect(res.Samples).To(Equal(3))
			Expect(res.CPU.Mean).To(BeNil())
			Expect(res.CPU.ZScore).To(BeNil())
			Expect(res.CPU.Anomaly).To(BeFalse())

			raw, err := json.Marshal(res)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(raw)).ToNot(ContainSubstring("rolling_avg"))
		})
	})

	Context("once the window is full", func() {
		It("reports rolling statistics", func() {
			res := feed(10, 20, 30, 40, 50)

			Expect(res.Samples).To(Equal(5))
			Expect(*res.CPU.Mean).To(BeNumerically("~", 30, 1e-9))
			Expect(*res.CPU.Median).To(Equal(30.0))
			Expect(*res.CPU.Min).To(Equal(10.0))
			Expect(*res.CPU.Max).To(Equal(50.0))
			Expect(*res.CPU.P95).To(BeNumerically("~", 48, 1e-9))
			Expect(res.TimeUnix).To(Equal(int64(1004)))
			Expect(res.DeviceID).To(Equal("node-1"))
		})

		It("leaves the z-score out of a flat window", func() {
			res := feed(10, 10, 10, 10, 10)

			Expect(*res.CPU.StdDev).To(Equal(0.0))
			Expect(res.CPU.ZScore).To(BeNil())
			Expect(res.RPS.ZScore).To(BeNil())
			Expect(res.CPU.Anomaly).To(BeFalse())
			Expect(logs.Len()).To(Equal(0))
		})

		It("flags and logs a spike", func() {
			res := feed(10, 10, 10, 10, 50)

			Expect(*res.CPU.ZScore).To(BeNumerically("~", 2, 1e-9))
			Expect(res.CPU.Anomaly).To(BeTrue())
			Expect(res.RPS.Anomaly).To(BeFalse())

			entries := logs.FilterMessage("anomaly detected").All()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].ContextMap()).To(HaveKeyWithValue("metric", "cpu"))
			Expect(entries[0].ContextMap()).To(HaveKeyWithValue("device_id", "node-1"))
		})

		It("switches to sample statistics", func() {
			feed(10, 10, 10, 10, 50)
			analyzer.SetDDOF(true)
			res := analyzer.Process(model.Sample{CPU: 10, RPS: 100, Timestamp: 2000})

			// window 10,10,10,50,10: mean 18, sample sd sqrt(1280/4)
			Expect(*res.CPU.StdDev).To(BeNumerically("~", 17.888543819998, 1e-9))
		})
	})

	It("stamps samples without a timestamp", func() {
		res := analyzer.Process(model.Sample{CPU: 1})
		Expect(res.TimeUnix).To(BeNumerically(">", 0))
	})

	It("keeps the latest snapshot", func() {
		Expect(analyzer.Latest().Samples).To(Equal(0))
		res := feed(1, 2)
		Expect(analyzer.Latest()).To(Equal(res))
	})
})

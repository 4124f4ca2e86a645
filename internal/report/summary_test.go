package report_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"

	"github.com/kubev2v/e2e-runner/internal/report"
)

func TestReport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Report Suite")
}

func writeResult(dir, name, content string) {
	Expect(os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644)).To(Succeed())
}

var _ = Describe("ReadResults", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("should read every result file", func() {
		writeResult(dir, "a-result.json", `{"name":"chat loads","status":"passed","start":1000,"stop":3500}`)
		writeResult(dir, "b-result.json", `{"name":"chat sends message","status":"failed","start":0,"stop":100}`)
		// Attachments and containers must be ignored.
		writeResult(dir, "c-container.json", `{"children":[]}`)

		results, err := report.ReadResults(dir)

		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(results[0].Name).To(Equal("chat loads"))
		Expect(results[1].Status).To(Equal("failed"))
	})

	It("should return an empty slice for an empty directory", func() {
		results, err := report.ReadResults(dir)

		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
	})

	It("should fail on malformed result JSON", func() {
		writeResult(dir, "bad-result.json", `{not json`)

		_, err := report.ReadResults(dir)

		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("WriteSummary", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	// Given a results directory with mixed statuses
	// When the summary workbook is written
	// Then the Summary sheet carries the status counts
	It("should write status counts and per-test rows", func() {
		writeResult(dir, "a-result.json", `{"name":"chat loads","status":"passed","start":1000,"stop":3500}`)
		writeResult(dir, "b-result.json", `{"name":"overlay opens","fullName":"overlay suite > opens","status":"failed","start":0,"stop":250}`)
		writeResult(dir, "c-result.json", `{"name":"chat history","status":"skipped"}`)
		path := filepath.Join(dir, "summary.xlsx")

		Expect(report.WriteSummary(dir, path)).To(Succeed())

		f, err := excelize.OpenFile(path)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		passed, err := f.GetCellValue("Summary", "B2")
		Expect(err).NotTo(HaveOccurred())
		Expect(passed).To(Equal("1"))

		failed, err := f.GetCellValue("Summary", "B3")
		Expect(err).NotTo(HaveOccurred())
		Expect(failed).To(Equal("1"))

		total, err := f.GetCellValue("Summary", "B6")
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal("3"))

		// fullName wins over name when present.
		name, err := f.GetCellValue("Tests", "A3")
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("overlay suite > opens"))
	})

	It("should write a workbook even with no results", func() {
		path := filepath.Join(dir, "summary.xlsx")

		Expect(report.WriteSummary(dir, path)).To(Succeed())
		Expect(path).To(BeARegularFile())
	})
})

package suites_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/e2e-runner/internal/suites"
)

func TestSuites(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Suites Suite")
}

var _ = Describe("Resolve", func() {
	// Given a recognized suite name
	// When we resolve it
	// Then the documented target and results directory are returned
	It("should resolve the chat suite to its documented values", func() {
		s := suites.Resolve("chat")

		Expect(s.Target).To(Equal("chat-ui:e2e"))
		Expect(s.ResultsDir).To(Equal("apps/chat-ui/allure-results"))
	})

	It("should resolve the overlay suite to its documented values", func() {
		s := suites.Resolve("overlay")

		Expect(s.Target).To(Equal("overlay-ui:e2e"))
		Expect(s.ResultsDir).To(Equal("apps/overlay-ui/allure-results"))
	})

	// Given a suite name not present in the table
	// When we resolve it
	// Then the name itself becomes the target and the results path is derived
	It("should fall back to the name as target for unknown suites", func() {
		s := suites.Resolve("settings-ui:smoke")

		Expect(s.Target).To(Equal("settings-ui:smoke"))
		Expect(s.ResultsDir).To(Equal("apps/settings-ui:smoke/allure-results"))
	})

	It("should derive the results path for unknown suites", func() {
		s := suites.Resolve("login")

		Expect(s.Name).To(Equal("login"))
		Expect(s.ResultsDir).To(Equal("apps/login/allure-results"))
	})
})

var _ = Describe("Names", func() {
	It("should list every recognized suite", func() {
		Expect(suites.Names()).To(ConsistOf("chat", "overlay"))
	})
})

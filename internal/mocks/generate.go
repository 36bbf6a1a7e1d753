package mocks

//go:generate mockgen -destination=configstore.go -package=mocks -mock_names=Store=MockConfigStore github.com/alanyang/role-master/internal/port/configstore Store
//go:generate mockgen -destination=eventbus.go -package=mocks -mock_names=EventBus=MockEventBus github.com/alanyang/role-master/internal/port/eventbus EventBus
//go:generate mockgen -destination=mirror.go -package=mocks -mock_names=RuleMirror=MockRuleMirror github.com/alanyang/role-master/internal/port/mirror RuleMirror
//go:generate mockgen -destination=market.go -package=mocks -mock_names=Source=MockMarketSource github.com/alanyang/role-master/internal/port/market Source
//go:generate mockgen -destination=notifier.go -package=mocks -mock_names=Notifier=MockNotifier github.com/alanyang/role-master/internal/port/notifier Notifier

package usecase

import "github.com/iamvkosarev/ai-interior-designer/pkg/local"

var (
	TextStatusSelectStyle = local.NewSet(
		"Select a style to begin",
		local.NewTrans(local.Rus, "Выберите стиль, чтобы начать"),
	)
	TextStatusCrafting = local.NewSet(
		"Crafting your %s space...",
		local.NewTrans(local.Rus, "Создаём ваше пространство в стиле %s..."),
	)
	TextStatusUpdating = local.NewSet(
		"Updating visualization...",
		local.NewTrans(local.Rus, "Обновляем визуализацию..."),
	)
	TextWelcome = local.NewSet(
		"I've reimagined your room in the **%s** style! %s How do you like it? Tell me if you want to swap furniture, change colors, or find specific items.",
		local.NewTrans(
			local.Rus,
			"Я переосмыслил вашу комнату в стиле **%s**! %s Как вам? Скажите, если хотите заменить мебель, поменять цвета или найти конкретные вещи.",
		),
	)
	TextLinksHeader = local.NewSet(
		"Here are some items I found for you:",
		local.NewTrans(local.Rus, "Вот что я нашёл для вас:"),
	)
	TextAssistantEmpty = local.NewSet(
		"I'm sorry, I couldn't process that request.",
		local.NewTrans(local.Rus, "Извините, я не смог обработать этот запрос."),
	)
	TextAssistantError = local.NewSet(
		"Error connecting to AI assistant.",
		local.NewTrans(local.Rus, "Ошибка подключения к AI-ассистенту."),
	)
	TextTransformationFailed = local.NewSet(
		"Something went wrong with the transformation. Please try again.",
		local.NewTrans(local.Rus, "Что-то пошло не так при преобразовании. Попробуйте ещё раз."),
	)

	TextTelegramStart = local.NewSet(
		"Welcome to Lumina! Send a photo of your room and pick a style to see it reimagined. Use /new to start over.",
		local.NewTrans(
			local.Rus,
			"Добро пожаловать в Lumina! Пришлите фото комнаты и выберите стиль, чтобы увидеть её в новом образе. /new начинает заново.",
		),
	)
	TextTelegramHelp = local.NewSet(
		"Send a photo of your room, then pick a style. After that, chat with me to refine the design. /styles shows the styles again, /new starts over.",
		local.NewTrans(
			local.Rus,
			"Пришлите фото комнаты и выберите стиль. Затем пишите мне, чтобы доработать дизайн. /styles снова покажет стили, /new начнёт заново.",
		),
	)
	TextTelegramNoAccess = local.NewSet(
		"You are not allowed to use this bot",
		local.NewTrans(local.Rus, "У вас нет доступа к этому боту"),
	)
	TextTelegramUnknownCommand = local.NewSet(
		"I don't know that command",
		local.NewTrans(local.Rus, "Я не знаю такой команды"),
	)
	TextTelegramServerError = local.NewSet(
		"Something wrong with me. Try later",
		local.NewTrans(local.Rus, "Что-то пошло не так. Попробуйте позже"),
	)
	TextTelegramNewSession = local.NewSet(
		"Started a new session. Send a photo of your room.",
		local.NewTrans(local.Rus, "Начата новая сессия. Пришлите фото комнаты."),
	)
	TextTelegramPickStyle = local.NewSet(
		"Pick a style for your room:",
		local.NewTrans(local.Rus, "Выберите стиль для комнаты:"),
	)
	TextTelegramNeedPhoto = local.NewSet(
		"Send a photo of your room first.",
		local.NewTrans(local.Rus, "Сначала пришлите фото комнаты."),
	)
	TextTelegramBadPhoto = local.NewSet(
		"I couldn't read that image. Please send a JPEG or PNG photo.",
		local.NewTrans(local.Rus, "Не удалось прочитать изображение. Пришлите фото в JPEG или PNG."),
	)
	TextTelegramImageBusy = local.NewSet(
		"I'm still working on the previous design.",
		local.NewTrans(local.Rus, "Я ещё работаю над предыдущим дизайном."),
	)
	TextTelegramChatBusy = local.NewSet(
		"I'm still thinking about your previous message.",
		local.NewTrans(local.Rus, "Я ещё обдумываю ваше предыдущее сообщение."),
	)
)
